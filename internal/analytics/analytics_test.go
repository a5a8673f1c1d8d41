package analytics

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/cradle/internal/models"
)

func f(v float64) *float64 { return &v }

func defaultTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestEmbeddedTableCoversThirtySixMonths(t *testing.T) {
	tbl := defaultTable(t)
	if tbl.MaxMonth() != 36 {
		t.Fatalf("MaxMonth = %d", tbl.MaxMonth())
	}
	for _, g := range []models.Gender{models.GenderBoy, models.GenderGirl, models.GenderOther} {
		for _, m := range models.Metrics {
			if n := len(tbl.Rows(g, m)); n != 37 {
				t.Errorf("%s/%s: %d rows", g, m, n)
			}
		}
	}
}

func TestPercentileLabelInclusiveLower(t *testing.T) {
	row := Row{Month: 6, P3: 6.4, P15: 7.1, P50: 7.9, P85: 8.9, P97: 9.7}
	cases := []struct {
		v    float64
		want Band
	}{
		{6.0, BandBelowP3},
		{6.4, BandBelowP3},
		{6.5, BandP3P15},
		{7.1, BandP3P15},
		{7.9, BandP15P50},
		{8.0, BandP50P85},
		{8.9, BandP50P85},
		{9.7, BandP85P97},
		{9.71, BandAboveP97},
	}
	for _, tc := range cases {
		if got := PercentileLabel(tc.v, row); got != tc.want {
			t.Errorf("PercentileLabel(%v) = %s, want %s", tc.v, got, tc.want)
		}
	}
}

func TestLatestPercentileEndToEnd(t *testing.T) {
	tbl := defaultTable(t)
	birth := models.MustDate("2024-01-01")
	recs := []models.GrowthRecord{
		{Date: models.MustDate("2024-07-01"), WeightKg: f(7.2)},
		{Date: models.MustDate("2024-08-01"), HeightCm: f(68)},
		{Date: models.MustDate("2024-03-01"), WeightKg: f(5.0)},
	}
	res, err := LatestPercentile(recs, models.MetricWeight, models.GenderBoy, birth, tbl)
	if err != nil {
		t.Fatal(err)
	}
	if res.Month != 6 || math.Abs(res.AgeMonths-5.98) > 0.01 {
		t.Errorf("age = %v, month = %d", res.AgeMonths, res.Month)
	}
	if res.Reference.Month != 6 || res.Band != BandP15P50 {
		t.Errorf("result = %+v", res)
	}
}

func TestLatestPercentileErrors(t *testing.T) {
	tbl := defaultTable(t)
	birth := models.MustDate("2020-01-01")
	if _, err := LatestPercentile(nil, models.MetricHead, models.GenderGirl, birth, tbl); !errors.Is(err, ErrNoMeasurement) {
		t.Errorf("empty: %v", err)
	}
	old := []models.GrowthRecord{{Date: models.MustDate("2024-01-01"), HeadCircumferenceCm: f(50)}}
	if _, err := LatestPercentile(old, models.MetricHead, models.GenderGirl, birth, tbl); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("out of range: %v", err)
	}
}

func TestSeriesForEmptyHasNoValues(t *testing.T) {
	tbl := defaultTable(t)
	pts := SeriesFor(tbl, nil, models.MetricHeight, models.GenderGirl, models.MustDate("2024-01-01"), 12)
	if len(pts) != 13 {
		t.Fatalf("len = %d, want 13", len(pts))
	}
	for _, p := range pts {
		if p.MyValue != nil {
			t.Errorf("month %d has a value", p.Month)
		}
	}
}

func TestSeriesForMatchesNearestMonth(t *testing.T) {
	tbl := defaultTable(t)
	birth := models.MustDate("2024-01-01")
	recs := []models.GrowthRecord{
		{Date: models.MustDate("2024-07-01"), WeightKg: f(7.2)},
		{Date: models.MustDate("2024-07-05"), WeightKg: f(7.3)}, // same month, later
		{Date: models.MustDate("2024-02-15"), WeightKg: f(4.1)}, // ~1.45 months
	}
	pts := SeriesFor(tbl, recs, models.MetricWeight, models.GenderBoy, birth, 6)
	if pts[6].MyValue == nil || *pts[6].MyValue != 7.3 {
		t.Errorf("month 6 = %v", pts[6].MyValue)
	}
	if pts[1].MyValue == nil || *pts[1].MyValue != 4.1 {
		t.Errorf("month 1 = %v", pts[1].MyValue)
	}
	if pts[2].MyValue != nil {
		t.Errorf("month 2 should be empty, got %v", *pts[2].MyValue)
	}
}

func TestOtherGenderIsMean(t *testing.T) {
	tbl := defaultTable(t)
	boy, _ := tbl.Row(models.GenderBoy, models.MetricWeight, 0)
	girl, _ := tbl.Row(models.GenderGirl, models.MetricWeight, 0)
	other, ok := tbl.Row(models.GenderOther, models.MetricWeight, 0)
	if !ok || math.Abs(other.P50-(boy.P50+girl.P50)/2) > 1e-9 {
		t.Errorf("other = %+v", other)
	}
}

func TestLoadFileRejectsGaps(t *testing.T) {
	var b strings.Builder
	for _, g := range []string{"BOY", "GIRL"} {
		b.WriteString(g + ":\n")
		for _, m := range []string{"height", "weight", "head"} {
			b.WriteString("  " + m + ":\n")
			b.WriteString("    - [0, 1, 2, 3, 4, 5]\n")
			b.WriteString("    - [2, 1, 2, 3, 4, 5]\n")
		}
	}
	path := filepath.Join(t.TempDir(), "ref.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for missing month 1")
	}

	fixed := strings.ReplaceAll(b.String(), "[2, 1", "[1, 1")
	if err := os.WriteFile(path, []byte(fixed), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.MaxMonth() != 1 {
		t.Errorf("MaxMonth = %d", tbl.MaxMonth())
	}
}
