package models

import (
	"encoding/json"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestCareRecordValidate(t *testing.T) {
	start := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		rec     CareRecord
		wantErr bool
	}{
		{"sleep ok", CareRecord{Kind: KindSleep, StartTime: start}, false},
		{"bath ok", CareRecord{Kind: KindBath, StartTime: start}, false},
		{"feed ok", CareRecord{Kind: KindFeed, StartTime: start, Feed: &Feed{Type: FeedFormula, Amount: ptr(120.0)}}, false},
		{"feed missing payload", CareRecord{Kind: KindFeed, StartTime: start}, true},
		{"feed negative amount", CareRecord{Kind: KindFeed, StartTime: start, Feed: &Feed{Type: FeedSolid, Amount: ptr(-1.0)}}, true},
		{"elimination ok", CareRecord{Kind: KindElimination, StartTime: start, Elimination: &Elimination{Type: EliminationStool}}, false},
		{"elimination bad type", CareRecord{Kind: KindElimination, StartTime: start, Elimination: &Elimination{Type: "GREEN"}}, true},
		{"sleep with feed payload", CareRecord{Kind: KindSleep, StartTime: start, Feed: &Feed{Type: FeedBreast}}, true},
		{"unknown kind", CareRecord{Kind: "NAP", StartTime: start}, true},
		{"missing start", CareRecord{Kind: KindSleep}, true},
		{"end before start is not a validation error", CareRecord{Kind: KindSleep, StartTime: start, EndTime: ptr(start.Add(-time.Hour))}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestAnomalousAndDuration(t *testing.T) {
	start := time.Date(2024, 7, 1, 21, 0, 0, 0, time.UTC)

	ok := CareRecord{Kind: KindSleep, StartTime: start, EndTime: ptr(start.Add(90 * time.Minute))}
	if ok.Anomalous() {
		t.Error("normal interval flagged anomalous")
	}
	if d, valid := ok.Duration(); !valid || d != 90*time.Minute {
		t.Errorf("Duration = %v, %v", d, valid)
	}

	bad := CareRecord{Kind: KindSleep, StartTime: start, EndTime: ptr(start.Add(-time.Minute))}
	if !bad.Anomalous() {
		t.Error("end before start should be anomalous")
	}
	if _, valid := bad.Duration(); valid {
		t.Error("anomalous record must not report a duration")
	}
	if !bad.EndTime.Before(bad.StartTime) {
		t.Error("anomalous record must not be clamped")
	}

	open := CareRecord{Kind: KindSleep, StartTime: start}
	if !open.Open() {
		t.Error("sleep without end should be open")
	}
	if _, valid := open.Duration(); valid {
		t.Error("open record must not report a duration")
	}
}

func TestStartsOnUsesQueryLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	// 2024-07-01 16:00 UTC is 2024-07-02 01:00 in Seoul.
	r := CareRecord{Kind: KindFeed, StartTime: time.Date(2024, 7, 1, 16, 0, 0, 0, time.UTC)}
	if !r.StartsOn(time.Date(2024, 7, 2, 0, 0, 0, 0, seoul)) {
		t.Error("expected record on 07-02 in Seoul")
	}
	if r.StartsOn(time.Date(2024, 7, 1, 0, 0, 0, 0, seoul)) {
		t.Error("record should not be on 07-01 in Seoul")
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := CareRecord{Kind: KindFeed, Feed: &Feed{Type: FeedFormula, Amount: ptr(100.0)}}
	c := r.Clone()
	*c.Feed.Amount = 50
	if *r.Feed.Amount != 100 {
		t.Errorf("clone shares amount: %v", *r.Feed.Amount)
	}
}

func TestFeedUnit(t *testing.T) {
	if (Feed{Type: FeedBreast}).Unit() != UnitMinutes {
		t.Error("breast should be minutes")
	}
	if (Feed{Type: FeedFormula}).Unit() != UnitMilliliters {
		t.Error("formula should be ml")
	}
	if (Feed{Type: FeedSolid}).Unit() != UnitGrams {
		t.Error("solid should be grams")
	}
}

func TestDateJSONAndArithmetic(t *testing.T) {
	d := MustDate("2024-07-01")
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2024-07-01"` {
		t.Errorf("marshal = %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil || back != d {
		t.Errorf("unmarshal = %v, %v", back, err)
	}
	if got := d.DaysSince(MustDate("2024-01-01")); got != 182 {
		t.Errorf("DaysSince = %d, want 182", got)
	}
	if !MustDate("2024-01-01").Before(d) || d.Before(d) {
		t.Error("Before ordering wrong")
	}
}

func TestProfilePatchIsShallowMerge(t *testing.T) {
	p := Profile{Name: "Haru", Gender: GenderBoy, BirthDate: MustDate("2024-01-01")}
	name := "Sora"
	got := ProfilePatch{Name: &name}.Apply(p)
	if got.Name != "Sora" || got.Gender != GenderBoy || got.BirthDate != p.BirthDate {
		t.Errorf("Apply = %+v", got)
	}
}
