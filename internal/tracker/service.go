// Package tracker is the service facade over the stores, the feeding timer,
// growth analytics and the model collaborators. Both transports call it.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/cradle/internal/analytics"
	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/growth"
	"github.com/starford/cradle/internal/metrics"
	"github.com/starford/cradle/internal/ml"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/profile"
	"github.com/starford/cradle/internal/records"
	"github.com/starford/cradle/internal/sse"
	"github.com/starford/cradle/internal/storage"
	"github.com/starford/cradle/internal/timer"
)

// Publisher receives change notifications. *sse.Broker implements it.
type Publisher interface {
	Publish(sse.Event)
	PublishChange(sse.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(sse.Event)       {}
func (nopPublisher) PublishChange(sse.Event) {}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }
func WithEvents(p Publisher) Option { return func(s *Service) { s.events = p } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }
func WithModel(m ml.Model) Option { return func(s *Service) { s.model = m } }
func WithReference(t *analytics.Table) Option { return func(s *Service) { s.table = t } }
func WithClock(fn func() time.Time) Option { return func(s *Service) { s.now = fn } }

// WithLocation sets the zone calendar days are read in.
func WithLocation(loc *time.Location) Option { return func(s *Service) { s.loc = loc } }

// WithTimerInterval sets the feeding timer tick interval.
func WithTimerInterval(d time.Duration) Option { return func(s *Service) { s.tickInterval = d } }

// WithRecordIDs overrides record id generation.
func WithRecordIDs(fn func() string) Option { return func(s *Service) { s.newID = fn } }

// Service coordinates every tracker operation.
type Service struct {
	logger  *slog.Logger
	events  Publisher
	metrics *metrics.Metrics
	model   ml.Model
	table   *analytics.Table
	loc     *time.Location
	now     func() time.Time
	newID   func() string

	tickInterval time.Duration

	records *records.Store
	growth  *growth.Store
	profile *profile.Store
	diaries *diaryStore
	timers  *timer.Registry
}

// New opens the stores on kv. ctx bounds the lifetime of feeding timers.
func New(ctx context.Context, kv storage.KV, opts ...Option) (*Service, error) {
	s := &Service{
		logger:       slog.Default(),
		events:       nopPublisher{},
		model:        ml.Disabled{},
		loc:          time.Local,
		now:          time.Now,
		tickInterval: timer.DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.table == nil {
		t, err := analytics.Default()
		if err != nil {
			return nil, err
		}
		s.table = t
	}

	recOpts := []records.Option{records.WithClock(s.now)}
	if s.newID != nil {
		recOpts = append(recOpts, records.WithIDFunc(s.newID))
	}
	var err error
	if s.records, err = records.Open(kv, s.logger, recOpts...); err != nil {
		return nil, err
	}
	if s.growth, err = growth.Open(kv, s.logger); err != nil {
		return nil, err
	}
	if s.profile, err = profile.Open(kv, s.logger); err != nil {
		return nil, err
	}
	if s.diaries, err = openDiaries(kv, s.logger); err != nil {
		return nil, err
	}

	s.timers = timer.NewRegistry(ctx,
		timer.WithInterval(s.tickInterval),
		timer.WithOnTick(func(snap timer.Snapshot) {
			s.events.Publish(sse.Event{Type: sse.TypeTimerTick, Data: snap})
		}),
	)
	return s, nil
}

// Close tears down any open feeding session.
func (s *Service) Close() error {
	s.timers.Close()
	return nil
}

// Location returns the zone calendar days are read in.
func (s *Service) Location() *time.Location { return s.loc }

// Reference returns the growth reference table.
func (s *Service) Reference() *analytics.Table { return s.table }

// Reload re-reads the store owning key after an external edit.
func (s *Service) Reload(key string) error {
	var err error
	switch key {
	case storage.KeyRecords:
		err = s.records.Reload()
	case storage.KeyGrowth:
		err = s.growth.Reload()
	case storage.KeyProfile:
		err = s.profile.Reload()
	case storage.KeyDiaries:
		err = s.diaries.reload()
	default:
		return fmt.Errorf("tracker: reload: unknown key %q: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return err
	}
	s.logger.Info("store reloaded", slog.String("key", key))
	s.events.PublishChange(sse.Event{Type: sse.TypeStoreReloaded, Data: map[string]string{"key": key}})
	return nil
}

// day returns midnight of d in the service zone.
func (s *Service) day(d models.Date) time.Time {
	return d.In(s.loc)
}

// persistFailed counts a persistence failure for key.
func (s *Service) persistFailed(key string, err error) {
	if errors.Is(err, apperr.ErrPersistence) {
		s.metrics.PersistenceFailures.WithLabelValues(key).Inc()
	}
}
