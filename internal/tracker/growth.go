package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/cradle/internal/analytics"
	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/sse"
	"github.com/starford/cradle/internal/storage"
)

// SaveGrowth stores g, replacing any measurement on the same date.
func (s *Service) SaveGrowth(ctx context.Context, g models.GrowthRecord) (bool, error) {
	created, err := s.growth.UpsertByDate(ctx, g)
	if err != nil {
		s.persistFailed(storage.KeyGrowth, err)
		return false, err
	}
	s.metrics.GrowthSaved.Inc()
	s.events.PublishChange(sse.Event{Type: sse.TypeGrowthSaved, Data: map[string]any{
		"growth":  g,
		"created": created,
	}})
	return created, nil
}

// Growth returns every measurement, ascending by date.
func (s *Service) Growth() []models.GrowthRecord {
	return s.growth.All()
}

// LatestPercentile classifies the most recent measurement of metric.
func (s *Service) LatestPercentile(metric models.Metric) (analytics.Result, error) {
	p, err := s.profile.Get()
	if err != nil {
		return analytics.Result{}, err
	}
	res, err := analytics.LatestPercentile(s.growth.All(), metric, p.Gender, p.BirthDate, s.table)
	switch {
	case errors.Is(err, analytics.ErrNoMeasurement):
		return analytics.Result{}, fmt.Errorf("%w: %w", apperr.ErrNotFound, err)
	case errors.Is(err, analytics.ErrOutOfRange):
		return analytics.Result{}, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	return res, err
}

// GrowthSeries returns the chart series for metric up to maxMonth. A
// non-positive maxMonth means the whole table.
func (s *Service) GrowthSeries(metric models.Metric, maxMonth int) ([]analytics.Point, error) {
	p, err := s.profile.Get()
	if err != nil {
		return nil, err
	}
	if maxMonth <= 0 || maxMonth > s.table.MaxMonth() {
		maxMonth = s.table.MaxMonth()
	}
	return analytics.SeriesFor(s.table, s.growth.All(), metric, p.Gender, p.BirthDate, maxMonth), nil
}
