package tracker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/cradle/internal/metrics"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/sse"
	"github.com/starford/cradle/internal/storage"
)

// Profile returns the child profile.
func (s *Service) Profile() (models.Profile, error) {
	return s.profile.Get()
}

// Onboard creates the profile.
func (s *Service) Onboard(ctx context.Context, p models.Profile) (models.Profile, error) {
	out, err := s.profile.Create(ctx, p)
	if err != nil {
		s.persistFailed(storage.KeyProfile, err)
		return models.Profile{}, err
	}
	s.events.PublishChange(sse.Event{Type: sse.TypeProfileUpdated, Data: out})
	return out, nil
}

// UpdateProfile applies a partial update.
func (s *Service) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (models.Profile, error) {
	out, err := s.profile.Update(ctx, patch)
	if err != nil {
		s.persistFailed(storage.KeyProfile, err)
		return models.Profile{}, err
	}
	s.events.PublishChange(sse.Event{Type: sse.TypeProfileUpdated, Data: out})
	return out, nil
}

// Logout discards the open feeding session and deletes every stored document.
// It attempts every store and reports all failures.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.timers.Cancel(); err == nil {
		s.metrics.TimerSessions.WithLabelValues(metrics.OutcomeCancelled).Inc()
	}
	err := errors.Join(
		s.records.Reset(ctx),
		s.growth.Reset(ctx),
		s.diaries.reset(),
		s.profile.Reset(ctx),
	)
	if err != nil {
		s.logger.Error("logout incomplete", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("profile reset")
	s.events.PublishChange(sse.Event{Type: sse.TypeProfileUpdated, Data: nil})
	return nil
}
