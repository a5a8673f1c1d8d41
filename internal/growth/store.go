// Package growth owns the date-keyed growth measurements.
package growth

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/storage"
)

// DaysPerMonth is the average month length used for every age computation.
const DaysPerMonth = 30.44

// AgeInMonthsAt returns the fractional age in months on date for a child born
// on birth. It is negative when date precedes birth.
func AgeInMonthsAt(date, birth models.Date) float64 {
	return float64(date.DaysSince(birth)) / DaysPerMonth
}

// Store keeps at most one GrowthRecord per date, ascending by date.
type Store struct {
	mu      sync.Mutex
	kv      storage.KV
	logger  *slog.Logger
	records []models.GrowthRecord
}

// Open loads the persisted measurements.
func Open(kv storage.KV, logger *slog.Logger) (*Store, error) {
	s := &Store{kv: kv, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory set with the persisted one.
func (s *Store) Reload() error {
	recs, _, err := storage.LoadJSON[[]models.GrowthRecord](s.kv, storage.KeyGrowth, s.logger)
	if err != nil {
		return fmt.Errorf("growth: load: %w", err)
	}
	recs = slices.DeleteFunc(recs, func(g models.GrowthRecord) bool { return g.Date.IsZero() })
	sortByDate(recs)
	recs = slices.CompactFunc(recs, func(a, b models.GrowthRecord) bool { return a.Date == b.Date })

	s.mu.Lock()
	s.records = recs
	s.mu.Unlock()
	return nil
}

// UpsertByDate stores g, replacing in full any record with the same date.
// created reports whether the date was new.
func (s *Store) UpsertByDate(_ context.Context, g models.GrowthRecord) (created bool, err error) {
	if err := g.Validate(); err != nil {
		return false, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.records)
	idx, found := slices.BinarySearchFunc(next, g.Date, func(r models.GrowthRecord, d models.Date) int {
		return compareDates(r.Date, d)
	})
	g = clone(g)
	if found {
		next[idx] = g
	} else {
		next = slices.Insert(next, idx, g)
	}

	if err := storage.SaveJSON(s.kv, storage.KeyGrowth, next); err != nil {
		s.logger.Error("growth: persist failed, keeping previous state",
			slog.String("date", g.Date.String()),
			slog.String("error", err.Error()))
		return false, fmt.Errorf("growth: %w", err)
	}
	s.records = next
	return !found, nil
}

// Get returns the record for date.
func (s *Store) Get(date models.Date) (models.GrowthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.Date == date {
			return clone(r), nil
		}
	}
	return models.GrowthRecord{}, fmt.Errorf("growth: %s: %w", date, apperr.ErrNotFound)
}

// All returns every record, ascending by date.
func (s *Store) All() []models.GrowthRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.GrowthRecord, len(s.records))
	for i, r := range s.records {
		out[i] = clone(r)
	}
	return out
}

// Reset removes every measurement.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.DeleteKey(s.kv, storage.KeyGrowth); err != nil {
		return fmt.Errorf("growth: reset: %w", err)
	}
	s.records = nil
	return nil
}

func compareDates(a, b models.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func sortByDate(recs []models.GrowthRecord) {
	slices.SortStableFunc(recs, func(a, b models.GrowthRecord) int { return compareDates(a.Date, b.Date) })
}

func clone(g models.GrowthRecord) models.GrowthRecord {
	g.HeightCm = copyFloat(g.HeightCm)
	g.WeightKg = copyFloat(g.WeightKg)
	g.HeadCircumferenceCm = copyFloat(g.HeadCircumferenceCm)
	return g
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
