package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/metrics"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/sse"
	"github.com/starford/cradle/internal/storage"
	"github.com/starford/cradle/internal/timer"
)

// FeedResult is what stopping a feeding session produces.
type FeedResult struct {
	Record  models.CareRecord `json:"record"`
	Capture timer.Capture     `json:"capture"`
	Created bool              `json:"created"`
}

// OpenFeedSession starts an idle breastfeeding timer. When recordID names an
// existing record the stopped session replaces it; otherwise a new record is
// produced. An already open session is discarded.
func (s *Service) OpenFeedSession(_ context.Context, recordID, note string) (timer.Snapshot, error) {
	base := models.CareRecord{
		Kind:      models.KindFeed,
		StartTime: s.now().In(s.loc),
		Feed:      &models.Feed{Type: models.FeedBreast},
		Note:      note,
	}
	if recordID != "" {
		existing, err := s.records.Get(recordID)
		if err != nil {
			return timer.Snapshot{}, err
		}
		base = existing
		if note != "" {
			base.Note = note
		}
	}

	if _, err := s.timers.Current(); err == nil {
		s.metrics.TimerSessions.WithLabelValues(metrics.OutcomeReplaced).Inc()
	}
	return s.timers.Open(base).Snapshot(), nil
}

// SelectSide switches to side, or toggles pause when side is already active.
func (s *Service) SelectSide(side timer.Side) (timer.Snapshot, error) {
	sess, err := s.timers.Current()
	if err != nil {
		return timer.Snapshot{}, timerErr(err)
	}
	if err := sess.Select(side); err != nil {
		return timer.Snapshot{}, timerErr(err)
	}
	return sess.Snapshot(), nil
}

// FeedSession returns the open session's state.
func (s *Service) FeedSession() (timer.Snapshot, error) {
	sess, err := s.timers.Current()
	if err != nil {
		return timer.Snapshot{}, timerErr(err)
	}
	return sess.Snapshot(), nil
}

// StopFeedSession stops the open session and saves the resulting breast feed.
// If the save fails the stopped session stays open, so calling it again
// retries with the same capture.
func (s *Service) StopFeedSession(ctx context.Context) (FeedResult, error) {
	var (
		out     models.CareRecord
		created bool
	)
	capture, _, err := s.timers.Stop(func(_ timer.Capture, rec models.CareRecord) error {
		var saveErr error
		out, created, saveErr = s.records.UpsertByID(ctx, rec)
		return saveErr
	})
	if err != nil {
		if errors.Is(err, apperr.ErrPersistence) {
			s.persistFailed(storage.KeyRecords, err)
			return FeedResult{}, err
		}
		return FeedResult{}, timerErr(err)
	}
	s.metrics.TimerSessions.WithLabelValues(metrics.OutcomeStopped).Inc()
	s.recordSaved(out, created)

	res := FeedResult{Record: out, Capture: capture, Created: created}
	s.events.Publish(sse.Event{Type: sse.TypeTimerStopped, Data: res})
	return res, nil
}

// CancelFeedSession discards the open session without saving.
func (s *Service) CancelFeedSession() error {
	if err := s.timers.Cancel(); err != nil {
		return timerErr(err)
	}
	s.metrics.TimerSessions.WithLabelValues(metrics.OutcomeCancelled).Inc()
	return nil
}

func timerErr(err error) error {
	switch {
	case errors.Is(err, timer.ErrNoSession):
		return fmt.Errorf("%w: %w", apperr.ErrNotFound, err)
	case errors.Is(err, timer.ErrStopped):
		return fmt.Errorf("%w: %w", apperr.ErrConflict, err)
	case errors.Is(err, timer.ErrBadSide):
		return fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	return err
}
