package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/sse"
	"github.com/starford/cradle/internal/storage"
	"github.com/starford/cradle/internal/timeline"
)

// QuickAdd records an event starting now. FEED needs a feed type and
// ELIMINATION an elimination type as sub; SLEEP and BATH start open-ended.
func (s *Service) QuickAdd(ctx context.Context, kind models.Kind, sub string) (models.CareRecord, error) {
	r := models.CareRecord{Kind: kind, StartTime: s.now().In(s.loc)}
	switch kind {
	case models.KindFeed:
		r.Feed = &models.Feed{Type: models.FeedType(sub)}
	case models.KindElimination:
		r.Elimination = &models.Elimination{Type: models.EliminationType(sub)}
	case models.KindSleep, models.KindBath:
		if sub != "" {
			return models.CareRecord{}, fmt.Errorf("%w: %s takes no subtype", apperr.ErrInvalid, kind)
		}
	}

	out, err := s.records.Add(ctx, r)
	if err != nil {
		s.persistFailed(storage.KeyRecords, err)
		return models.CareRecord{}, err
	}
	s.recordSaved(out, true)
	return out, nil
}

// SaveRecord creates r, or replaces the record with the same id in place.
func (s *Service) SaveRecord(ctx context.Context, r models.CareRecord) (models.CareRecord, bool, error) {
	out, created, err := s.records.UpsertByID(ctx, r)
	if err != nil {
		s.persistFailed(storage.KeyRecords, err)
		return models.CareRecord{}, false, err
	}
	s.recordSaved(out, created)
	return out, created, nil
}

func (s *Service) recordSaved(r models.CareRecord, created bool) {
	s.metrics.RecordsSaved.WithLabelValues(string(r.Kind)).Inc()
	if r.Anomalous() {
		s.logger.Warn("record ends before it starts",
			slog.String("id", r.ID),
			slog.String("kind", string(r.Kind)))
	}
	s.events.PublishChange(sse.Event{Type: sse.TypeRecordSaved, Data: map[string]any{
		"record":  r,
		"created": created,
	}})
}

// Record returns one record.
func (s *Service) Record(id string) (models.CareRecord, error) {
	return s.records.Get(id)
}

// Records returns up to limit records, most recently created first.
func (s *Service) Records(limit int) []models.CareRecord {
	return s.records.Recent(limit)
}

// RecordsOn returns the records starting on date in the service zone.
func (s *Service) RecordsOn(date models.Date) []models.CareRecord {
	return s.records.RecordsOn(s.day(date))
}

// DayTimeline places date's records on a 24-hour column.
func (s *Service) DayTimeline(date models.Date) timeline.Column {
	return timeline.Day(s.records.All(), s.day(date))
}

// WeekPattern returns the Monday-Sunday pattern containing date.
func (s *Service) WeekPattern(date models.Date) timeline.WeekPattern {
	return timeline.Week(s.records.All(), s.day(date))
}

// DailyStats summarises date.
func (s *Service) DailyStats(date models.Date) timeline.Stats {
	return timeline.DailyStats(s.records.All(), s.day(date))
}

// Today returns the current date in the service zone.
func (s *Service) Today() models.Date {
	return models.DateOf(s.now().In(s.loc))
}
