// Package records owns the ordered collection of care records and its
// persistence.
package records

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/storage"
)

// Store is the in-memory, most-recently-created-first collection of care
// records. Every mutation is persisted before it becomes visible; the mutex
// is held across the save so writes are serialized.
type Store struct {
	mu      sync.Mutex
	kv      storage.KV
	logger  *slog.Logger
	records []models.CareRecord
	newID   func() string
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithIDFunc overrides id generation.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock overrides the clock used for CreatedAt.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// Open loads the persisted collection. A missing or malformed document
// yields an empty store.
func Open(kv storage.KV, logger *slog.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		kv:     kv,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory collection with the persisted one.
func (s *Store) Reload() error {
	recs, _, err := storage.LoadJSON[[]models.CareRecord](s.kv, storage.KeyRecords, s.logger)
	if err != nil {
		return fmt.Errorf("records: load: %w", err)
	}
	s.mu.Lock()
	s.records = recs
	s.mu.Unlock()
	return nil
}

// Add assigns an id when absent and prepends the record.
// Adding an id that already exists is a conflict; use UpsertByID to edit.
func (s *Store) Add(_ context.Context, r models.CareRecord) (models.CareRecord, error) {
	if err := r.Validate(); err != nil {
		return models.CareRecord{}, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID != "" && s.indexOf(r.ID) >= 0 {
		return models.CareRecord{}, fmt.Errorf("records: %s: %w", r.ID, apperr.ErrConflict)
	}
	r = s.stamp(r)
	if err := s.commit(prepend(s.records, r)); err != nil {
		return models.CareRecord{}, err
	}
	return r.Clone(), nil
}

// UpsertByID replaces the record with the same id at its current position,
// or prepends it when the id is new or absent. created reports which
// happened. Replacement is whole-record; only CreatedAt is carried over when
// the caller leaves it zero.
func (s *Store) UpsertByID(_ context.Context, r models.CareRecord) (out models.CareRecord, created bool, err error) {
	if err := r.Validate(); err != nil {
		return models.CareRecord{}, false, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	if r.ID != "" {
		idx = s.indexOf(r.ID)
	}
	if idx < 0 {
		r = s.stamp(r)
		if err := s.commit(prepend(s.records, r)); err != nil {
			return models.CareRecord{}, false, err
		}
		return r.Clone(), true, nil
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.records[idx].CreatedAt
	}
	next := slices.Clone(s.records)
	next[idx] = r.Clone()
	if err := s.commit(next); err != nil {
		return models.CareRecord{}, false, err
	}
	return r.Clone(), false, nil
}

// Get returns the record with id.
func (s *Store) Get(id string) (models.CareRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return models.CareRecord{}, fmt.Errorf("records: %s: %w", id, apperr.ErrNotFound)
	}
	return s.records[idx].Clone(), nil
}

// All returns a copy of every record, most recently created first.
func (s *Store) All() []models.CareRecord {
	return s.Recent(-1)
}

// Recent returns up to n records, most recently created first. n < 0 means all.
func (s *Store) Recent(n int) []models.CareRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n > len(s.records) {
		n = len(s.records)
	}
	out := make([]models.CareRecord, n)
	for i := range n {
		out[i] = s.records[i].Clone()
	}
	return out
}

// RecordsOn returns the records whose start falls on day's calendar date in
// day's location, in store order.
func (s *Store) RecordsOn(day time.Time) []models.CareRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.CareRecord{}
	for _, r := range s.records {
		if r.StartsOn(day) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Reset removes every record, in memory and on disk.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.DeleteKey(s.kv, storage.KeyRecords); err != nil {
		return fmt.Errorf("records: reset: %w", err)
	}
	s.records = nil
	return nil
}

// commit persists next and swaps it in only on success.
// Callers hold s.mu.
func (s *Store) commit(next []models.CareRecord) error {
	if err := storage.SaveJSON(s.kv, storage.KeyRecords, next); err != nil {
		s.logger.Error("records: persist failed, keeping previous state",
			slog.Int("records", len(s.records)),
			slog.String("error", err.Error()))
		return fmt.Errorf("records: %w", err)
	}
	s.records = next
	return nil
}

func (s *Store) stamp(r models.CareRecord) models.CareRecord {
	r = r.Clone()
	if r.ID == "" {
		r.ID = s.newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	return r
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.records, func(r models.CareRecord) bool { return r.ID == id })
}

func prepend(recs []models.CareRecord, r models.CareRecord) []models.CareRecord {
	next := make([]models.CareRecord, 0, len(recs)+1)
	next = append(next, r)
	return append(next, recs...)
}
