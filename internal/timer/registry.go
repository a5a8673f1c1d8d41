package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/cradle/internal/models"
)

// Registry holds at most one open session. Opening a new one closes the
// previous session without capturing it.
type Registry struct {
	mu      sync.Mutex
	ctx     context.Context
	opts    []Option
	current *Session
	now     func() time.Time
}

// NewRegistry returns a registry whose sessions live no longer than ctx.
func NewRegistry(ctx context.Context, opts ...Option) *Registry {
	return &Registry{ctx: ctx, opts: opts, now: time.Now}
}

// Open starts a session for base. A missing id or start time is filled in so
// the record produced at stop time has a stable identity.
func (r *Registry) Open(base models.CareRecord) *Session {
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if base.StartTime.IsZero() {
		base.StartTime = r.now()
	}
	s := NewSession(r.ctx, base, r.opts...)

	r.mu.Lock()
	prev := r.current
	r.current = s
	r.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return s
}

// Current returns the open session.
func (r *Registry) Current() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil, ErrNoSession
	}
	return r.current, nil
}

// SaveFunc persists the record a stopped session produced.
type SaveFunc func(c Capture, rec models.CareRecord) error

// Stop freezes the open session and hands its capture, applied to the base
// record, to save. The session is released only when save succeeds; after a
// failure it stays registered in the stopped state and Stop can be called
// again to retry with the same capture.
func (r *Registry) Stop(save SaveFunc) (Capture, models.CareRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.current
	if s == nil {
		return Capture{}, models.CareRecord{}, ErrNoSession
	}
	c, err := s.Stop()
	if errors.Is(err, ErrStopped) {
		c = s.Capture()
	}
	rec := c.Apply(s.Base())
	if save != nil {
		if err := save(c, rec); err != nil {
			return Capture{}, models.CareRecord{}, err
		}
	}
	r.current = nil
	return c, rec, nil
}

// Cancel discards the open session.
func (r *Registry) Cancel() error {
	s, err := r.take()
	if err != nil {
		return err
	}
	s.Close()
	return nil
}

// Close tears down any open session.
func (r *Registry) Close() {
	if s, err := r.take(); err == nil {
		s.Close()
	}
}

func (r *Registry) take() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil, ErrNoSession
	}
	s := r.current
	r.current = nil
	return s, nil
}
