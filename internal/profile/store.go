// Package profile persists the single child profile.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	kv      storage.KV
	logger  *slog.Logger
	profile *models.Profile
}

func Open(kv storage.KV, logger *slog.Logger) (*Store, error) {
	s := &Store{kv: kv, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the persisted profile. A stored profile that no longer
// validates is treated as absent.
func (s *Store) Reload() error {
	p, ok, err := storage.LoadJSON[models.Profile](s.kv, storage.KeyProfile, s.logger)
	if err != nil {
		return fmt.Errorf("profile: load: %w", err)
	}
	if ok {
		if verr := p.Validate(); verr != nil {
			s.logger.Warn("profile: stored profile is invalid, ignoring", slog.String("error", verr.Error()))
			ok = false
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.profile = nil
		return nil
	}
	s.profile = &p
	return nil
}

// Get returns the current profile or apperr.ErrNoProfile.
func (s *Store) Get() (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return models.Profile{}, apperr.ErrNoProfile
	}
	return *s.profile, nil
}

// Create stores p as the profile, replacing any existing one.
func (s *Store) Create(_ context.Context, p models.Profile) (models.Profile, error) {
	if err := p.Validate(); err != nil {
		return models.Profile{}, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commit(p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// Update applies patch to the existing profile.
func (s *Store) Update(_ context.Context, patch models.ProfilePatch) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return models.Profile{}, apperr.ErrNoProfile
	}
	next := patch.Apply(*s.profile)
	if err := next.Validate(); err != nil {
		return models.Profile{}, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	if err := s.commit(next); err != nil {
		return models.Profile{}, err
	}
	return next, nil
}

// Reset deletes the profile.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.DeleteKey(s.kv, storage.KeyProfile); err != nil {
		return fmt.Errorf("profile: reset: %w", err)
	}
	s.profile = nil
	return nil
}

func (s *Store) commit(p models.Profile) error {
	if err := storage.SaveJSON(s.kv, storage.KeyProfile, p); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	s.profile = &p
	return nil
}
