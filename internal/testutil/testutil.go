// Package testutil provides shared test helpers for building a tracker over temporary storage.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/cradle/internal/storage"
	"github.com/starford/cradle/internal/tracker"
)

// Now is the instant FixedClock-based services treat as the present:
// Tuesday 2024-07-02 09:30 UTC.
var Now = time.Date(2024, 7, 2, 9, 30, 0, 0, time.UTC)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDataDir creates a temporary data directory with a file-backed KV.
func TestDataDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	kv, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, kv
}

// NewService builds a tracker on a temporary data directory with a UTC
// calendar, a clock frozen at Now and a discarded log. opts are applied
// after those defaults. The service and its timers are torn down on cleanup.
func NewService(t *testing.T, opts ...tracker.Option) *tracker.Service {
	t.Helper()
	_, kv := TestDataDir(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	base := []tracker.Option{
		tracker.WithLogger(DiscardLogger()),
		tracker.WithLocation(time.UTC),
		tracker.WithClock(func() time.Time { return Now }),
		tracker.WithTimerInterval(time.Hour),
	}
	svc, err := tracker.New(ctx, kv, append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}
