package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/cradle/internal/analytics"
	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/ml"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/sse"
	"github.com/starford/cradle/internal/storage"
	"github.com/starford/cradle/internal/timer"
)

type fakeModel struct {
	story    string
	narrErr  error
	analysis ml.StoolAnalysis
	scanErr  error
	lastReq  ml.NarrativeRequest
}

func (f *fakeModel) Narrate(_ context.Context, req ml.NarrativeRequest) (string, error) {
	f.lastReq = req
	return f.story, f.narrErr
}

func (f *fakeModel) AnalyzeStool(context.Context, []byte, string) (ml.StoolAnalysis, error) {
	return f.analysis, f.scanErr
}

func (f *fakeModel) Close() error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(e sse.Event)       { p.add(e.Type) }
func (p *recordingPublisher) PublishChange(e sse.Event) { p.add(e.Type) }

func (p *recordingPublisher) add(t string) {
	p.mu.Lock()
	p.events = append(p.events, t)
	p.mu.Unlock()
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

var fixedNow = time.Date(2024, 7, 2, 9, 30, 0, 0, time.UTC)

type harness struct {
	svc    *Service
	kv     *storage.Memory
	model  *fakeModel
	events *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{kv: storage.NewMemory(), model: &fakeModel{}, events: &recordingPublisher{}}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	n := 0
	svc, err := New(ctx, h.kv,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithEvents(h.events),
		WithModel(h.model),
		WithLocation(time.UTC),
		WithClock(func() time.Time { return fixedNow }),
		WithTimerInterval(time.Hour),
		WithRecordIDs(func() string { n++; return fmt.Sprintf("rec-%d", n) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	h.svc = svc
	return h
}

func (h *harness) onboard(t *testing.T) {
	t.Helper()
	_, err := h.svc.Onboard(context.Background(), models.Profile{
		Name: "Mia", Gender: models.GenderBoy, BirthDate: models.MustDate("2024-01-01"),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestQuickAdd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sleep, err := h.svc.QuickAdd(ctx, models.KindSleep, "")
	if err != nil {
		t.Fatal(err)
	}
	if !sleep.Open() || !sleep.StartTime.Equal(fixedNow) {
		t.Errorf("sleep = %+v", sleep)
	}
	if _, err := h.svc.QuickAdd(ctx, models.KindFeed, ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("feed without type: %v", err)
	}
	if _, err := h.svc.QuickAdd(ctx, models.KindElimination, "STOOL"); err != nil {
		t.Fatal(err)
	}
	if got := len(h.svc.RecordsOn(models.MustDate("2024-07-02"))); got != 2 {
		t.Errorf("records today = %d", got)
	}
	if st := h.svc.DailyStats(models.MustDate("2024-07-02")); st.Stool != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestEndToEndPercentile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.LatestPercentile(models.MetricWeight); !errors.Is(err, apperr.ErrNoProfile) {
		t.Fatalf("without profile: %v", err)
	}
	h.onboard(t)
	if _, err := h.svc.LatestPercentile(models.MetricWeight); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("without measurement: %v", err)
	}

	w := 7.2
	if _, err := h.svc.SaveGrowth(ctx, models.GrowthRecord{Date: models.MustDate("2024-07-01"), WeightKg: &w}); err != nil {
		t.Fatal(err)
	}
	res, err := h.svc.LatestPercentile(models.MetricWeight)
	if err != nil {
		t.Fatal(err)
	}
	if res.Month != 6 || res.Band != analytics.BandP15P50 {
		t.Errorf("result = %+v", res)
	}

	series, err := h.svc.GrowthSeries(models.MetricWeight, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 37 || series[6].MyValue == nil {
		t.Errorf("series len %d, month 6 = %v", len(series), series[6].MyValue)
	}
}

func TestFeedSessionSavesRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.SelectSide(timer.SideLeft); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("select without session: %v", err)
	}
	snap, err := h.svc.OpenFeedSession(ctx, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != timer.StateIdle {
		t.Errorf("state = %s", snap.State)
	}
	if _, err := h.svc.SelectSide(timer.SideLeft); err != nil {
		t.Fatal(err)
	}

	res, err := h.svc.StopFeedSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Created || res.Record.Feed == nil || *res.Record.Feed.Amount != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.Record.Note != "Left: 0 min, Right: 0 min" {
		t.Errorf("note = %q", res.Record.Note)
	}
	if _, err := h.svc.Record(res.Record.ID); err != nil {
		t.Errorf("stopped session not stored: %v", err)
	}
	if _, err := h.svc.FeedSession(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("session still open: %v", err)
	}

	types := strings.Join(h.events.types(), ",")
	if !strings.Contains(types, sse.TypeRecordSaved) || !strings.Contains(types, sse.TypeTimerStopped) {
		t.Errorf("events = %s", types)
	}
}

func TestFeedSessionEditsExistingRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	amount := 5.0
	orig, _, err := h.svc.SaveRecord(ctx, models.CareRecord{
		Kind: models.KindFeed, StartTime: fixedNow.Add(-time.Hour),
		Feed: &models.Feed{Type: models.FeedBreast, Amount: &amount}, Note: "fussy",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.QuickAdd(ctx, models.KindBath, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := h.svc.OpenFeedSession(ctx, orig.ID, ""); err != nil {
		t.Fatal(err)
	}
	res, err := h.svc.StopFeedSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created || res.Record.ID != orig.ID || res.Record.Note != "fussy (Left: 0 min, Right: 0 min)" {
		t.Errorf("result = %+v", res)
	}
	all := h.svc.Records(-1)
	if len(all) != 2 || all[1].ID != orig.ID {
		t.Errorf("edited record moved: %+v", all)
	}
}

func TestWriteDiaryFallsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.onboard(t)
	if _, err := h.svc.QuickAdd(ctx, models.KindSleep, ""); err != nil {
		t.Fatal(err)
	}

	h.model.story = "I napped like a cloud."
	d, err := h.svc.WriteDiary(ctx, "You slept so well today")
	if err != nil {
		t.Fatal(err)
	}
	if d.Degraded || d.Content != "I napped like a cloud." || d.Title != "Mia's adventure" {
		t.Errorf("diary = %+v", d)
	}
	if h.model.lastReq.Summary != "SLEEP: " || h.model.lastReq.ChildName != "Mia" {
		t.Errorf("request = %+v", h.model.lastReq)
	}

	h.model.narrErr = errors.New("quota exceeded")
	d, err = h.svc.WriteDiary(ctx, "again")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Degraded || d.Content != PlaceholderStory {
		t.Errorf("fallback diary = %+v", d)
	}
	if got := h.svc.Diaries(); len(got) != 2 || got[0].ID != d.ID {
		t.Errorf("diaries = %+v", got)
	}
}

func TestScanStool(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.model.scanErr = errors.New("blurry")
	if _, err := h.svc.ScanStool(ctx, []byte{0xff, 0xd8}, "image/jpeg"); err == nil {
		t.Fatal("expected scan error")
	}
	if n := len(h.svc.Records(-1)); n != 0 {
		t.Fatalf("failed scan stored %d records", n)
	}

	h.model.scanErr = nil
	h.model.analysis = ml.StoolAnalysis{Color: "yellow", Firmness: "soft", StatusLabel: "Healthy"}
	res, err := h.svc.ScanStool(ctx, []byte{0xff, 0xd8}, "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.Note != "AI scan: yellow, soft, Healthy" || res.Record.Elimination.Type != models.EliminationStool {
		t.Errorf("record = %+v", res.Record)
	}

	if _, err := h.svc.ScanStool(ctx, []byte("x"), "text/plain"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("non-image: %v", err)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.onboard(t)
	_, _ = h.svc.QuickAdd(ctx, models.KindSleep, "")
	w := 6.0
	_, _ = h.svc.SaveGrowth(ctx, models.GrowthRecord{Date: models.MustDate("2024-06-01"), WeightKg: &w})
	_, _ = h.svc.OpenFeedSession(ctx, "", "")

	if err := h.svc.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.Profile(); !errors.Is(err, apperr.ErrNoProfile) {
		t.Errorf("profile: %v", err)
	}
	if len(h.svc.Records(-1)) != 0 || len(h.svc.Growth()) != 0 {
		t.Error("records or growth survived logout")
	}
	if _, err := h.svc.FeedSession(); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("feed session survived logout")
	}
}

func TestSaveFailureIsReported(t *testing.T) {
	h := newHarness(t)
	h.kv.SetFailure(errors.New("disk full"))
	if _, err := h.svc.QuickAdd(context.Background(), models.KindBath, ""); !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("err = %v", err)
	}
}

func TestStopFeedSessionRetriesAfterSaveFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.OpenFeedSession(ctx, "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.SelectSide(timer.SideLeft); err != nil {
		t.Fatal(err)
	}

	h.kv.SetFailure(errors.New("disk full"))
	if _, err := h.svc.StopFeedSession(ctx); !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("stop err = %v", err)
	}
	snap, err := h.svc.FeedSession()
	if err != nil {
		t.Fatalf("session dropped after failed save: %v", err)
	}
	if snap.State != timer.StateStopped {
		t.Errorf("state = %s", snap.State)
	}
	if len(h.svc.Records(-1)) != 0 {
		t.Error("failed save left a record behind")
	}

	h.kv.SetFailure(nil)
	res, err := h.svc.StopFeedSession(ctx)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !res.Created || res.Record.Feed == nil {
		t.Errorf("result = %+v", res)
	}
	if len(h.svc.Records(-1)) != 1 {
		t.Errorf("records = %d", len(h.svc.Records(-1)))
	}
	if _, err := h.svc.FeedSession(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("session still open: %v", err)
	}
}

func TestReloadPicksUpExternalEdits(t *testing.T) {
	h := newHarness(t)
	h.kv.Put(storage.KeyRecords, []byte(`[{"id":"ext","kind":"BATH","start_time":"2024-07-02T08:00:00Z","created_at":"2024-07-02T08:00:00Z"}]`))
	if err := h.svc.Reload(storage.KeyRecords); err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.Record("ext"); err != nil {
		t.Errorf("external record not loaded: %v", err)
	}
	if err := h.svc.Reload("unknown"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown key: %v", err)
	}
}

func TestHome(t *testing.T) {
	h := newHarness(t)
	today := h.svc.Today()
	if _, err := h.svc.Home(today); !errors.Is(err, apperr.ErrNoProfile) {
		t.Fatalf("home before onboarding: %v", err)
	}
	h.onboard(t)

	home, err := h.svc.Home(today)
	if err != nil {
		t.Fatal(err)
	}
	if home.DaysSinceBirth != 182 {
		t.Errorf("days since birth = %d, want 182", home.DaysSinceBirth)
	}
	if !strings.Contains(home.Question, "Mia") || strings.Contains(home.Question, "{name}") {
		t.Errorf("question = %q", home.Question)
	}

	again, err := h.svc.Home(today)
	if err != nil {
		t.Fatal(err)
	}
	if again.Question != home.Question {
		t.Errorf("question changed within a day: %q then %q", home.Question, again.Question)
	}
}

func TestDailyQuestionVariesByDate(t *testing.T) {
	seen := map[string]bool{}
	d := models.MustDate("2024-07-01")
	for i := range 30 {
		day := models.DateOf(d.In(time.UTC).AddDate(0, 0, i))
		seen[DailyQuestion(day, "Mia")] = true
	}
	if len(seen) < 2 {
		t.Errorf("30 days produced %d distinct questions", len(seen))
	}
}
