// Package timer implements the two-sided breastfeeding stopwatch.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/starford/cradle/internal/models"
)

var (
	ErrStopped   = errors.New("timer: session stopped")
	ErrNoSession = errors.New("timer: no open session")
	ErrBadSide   = errors.New("timer: side must be LEFT or RIGHT")
)

// DefaultInterval is one counted second.
const DefaultInterval = time.Second

type Side string

const (
	SideNone  Side = "NONE"
	SideLeft  Side = "LEFT"
	SideRight Side = "RIGHT"
)

// ParseSide accepts LEFT or RIGHT.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideLeft, SideRight:
		return Side(s), nil
	}
	return SideNone, fmt.Errorf("%w: %q", ErrBadSide, s)
}

type State string

const (
	StateIdle         State = "IDLE"
	StateRunningLeft  State = "RUNNING_LEFT"
	StateRunningRight State = "RUNNING_RIGHT"
	StatePausedLeft   State = "PAUSED_LEFT"
	StatePausedRight  State = "PAUSED_RIGHT"
	StateStopped      State = "STOPPED"
)

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	RecordID     string `json:"record_id"`
	State        State  `json:"state"`
	ActiveSide   Side   `json:"active_side"`
	Running      bool   `json:"running"`
	LeftSeconds  int    `json:"left_seconds"`
	RightSeconds int    `json:"right_seconds"`
}

// Capture is the frozen result of a stopped session.
type Capture struct {
	LeftSeconds  int `json:"left_seconds"`
	RightSeconds int `json:"right_seconds"`
}

// Minutes returns the whole minutes across both sides.
func (c Capture) Minutes() int {
	return (c.LeftSeconds + c.RightSeconds) / 60
}

// Apply turns r into a breast feed carrying the captured duration. The
// per-side breakdown is appended to an existing note or becomes the note.
func (c Capture) Apply(r models.CareRecord) models.CareRecord {
	r = r.Clone()
	mins := float64(c.Minutes())
	r.Kind = models.KindFeed
	r.Feed = &models.Feed{Type: models.FeedBreast, Amount: &mins}
	r.Elimination = nil
	r.EndTime = nil

	split := fmt.Sprintf("Left: %d min, Right: %d min", c.LeftSeconds/60, c.RightSeconds/60)
	if r.Note == "" {
		r.Note = split
	} else {
		r.Note = r.Note + " (" + split + ")"
	}
	return r
}

// Option configures a Session.
type Option func(*Session)

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithOnTick registers an observer called after every counted tick. It runs
// with the session locked and must not call back into the session.
func WithOnTick(fn func(Snapshot)) Option {
	return func(s *Session) { s.onTick = fn }
}

// Session counts seconds against the active side while running.
type Session struct {
	mu       sync.Mutex
	base     models.CareRecord
	side     Side
	running  bool
	left     int
	right    int
	stopped  bool
	interval time.Duration
	onTick   func(Snapshot)

	parent context.Context
	cancel context.CancelFunc
	gen    uint64 // bumped whenever the running ticker is replaced
}

// NewSession returns an idle session for base. A tick goroutine runs only
// while a side is running and ends with ctx.
func NewSession(ctx context.Context, base models.CareRecord, opts ...Option) *Session {
	s := &Session{
		base:     base.Clone(),
		side:     SideNone,
		interval: DefaultInterval,
		parent:   ctx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Base returns the record the session will be applied to.
func (s *Session) Base() models.CareRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.Clone()
}

// Select activates side. Selecting the active side toggles pause; selecting
// the other side switches and runs. Every change restarts the count, so the
// first tick after it lands a full interval later.
func (s *Session) Select(side Side) error {
	if side != SideLeft && side != SideRight {
		return fmt.Errorf("%w: %q", ErrBadSide, side)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if side == s.side {
		s.running = !s.running
	} else {
		s.side = side
		s.running = true
	}
	s.restartLocked()
	return nil
}

// Stop freezes the counters and returns them.
func (s *Session) Stop() (Capture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return Capture{}, ErrStopped
	}
	s.halt()
	return Capture{LeftSeconds: s.left, RightSeconds: s.right}, nil
}

// Capture returns the counters as they stand.
func (s *Session) Capture() Capture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Capture{LeftSeconds: s.left, RightSeconds: s.right}
}

// Close ends the session without producing a capture. Safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.halt()
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) halt() {
	s.stopped = true
	s.running = false
	s.restartLocked()
}

// restartLocked drops the current ticker and, while running, starts a fresh
// one. A tick from the old ticker that is already waiting on the lock sees a
// stale generation and is ignored.
func (s *Session) restartLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	if !s.running || s.stopped {
		return
	}
	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	go s.loop(ctx, s.gen)
}

func (s *Session) loop(ctx context.Context, gen uint64) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.mu.Lock()
			if s.gen == gen {
				s.advanceLocked()
			}
			s.mu.Unlock()
		}
	}
}

// tick counts one interval against the active side.
func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
}

func (s *Session) advanceLocked() {
	if s.stopped || !s.running {
		return
	}
	switch s.side {
	case SideLeft:
		s.left++
	case SideRight:
		s.right++
	default:
		return
	}
	if s.onTick != nil {
		s.onTick(s.snapshotLocked())
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		RecordID:     s.base.ID,
		State:        s.stateLocked(),
		ActiveSide:   s.side,
		Running:      s.running,
		LeftSeconds:  s.left,
		RightSeconds: s.right,
	}
}

func (s *Session) stateLocked() State {
	switch {
	case s.stopped:
		return StateStopped
	case s.side == SideLeft && s.running:
		return StateRunningLeft
	case s.side == SideLeft:
		return StatePausedLeft
	case s.side == SideRight && s.running:
		return StateRunningRight
	case s.side == SideRight:
		return StatePausedRight
	}
	return StateIdle
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
