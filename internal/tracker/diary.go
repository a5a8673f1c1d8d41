package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/ml"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/storage"
)

// diarySummaryRecords is how many recent records feed the narrative.
const diarySummaryRecords = 5

// PlaceholderStory is stored when the narrator fails.
const PlaceholderStory = "The story could not be written right now. Please try again later."

// Diary is one generated diary entry.
type Diary struct {
	ID        string      `json:"id"`
	Date      models.Date `json:"date"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Prompt    string      `json:"prompt"`
	Degraded  bool        `json:"degraded,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// WriteDiary turns the parent's text and the latest records into a diary
// entry. A narrator failure still produces an entry, flagged degraded.
func (s *Service) WriteDiary(ctx context.Context, text string) (Diary, error) {
	if text == "" {
		return Diary{}, fmt.Errorf("%w: text is required", apperr.ErrInvalid)
	}
	p, err := s.profile.Get()
	if err != nil {
		return Diary{}, err
	}

	req := ml.NarrativeRequest{
		ChildName: p.Name,
		Text:      text,
		Summary:   ml.SummarizeRecords(s.records.Recent(diarySummaryRecords)),
	}
	now := s.now().In(s.loc)
	d := Diary{
		ID:        uuid.NewString(),
		Date:      models.DateOf(now),
		Title:     p.Name + "'s adventure",
		Prompt:    text,
		CreatedAt: now,
	}

	story, err := s.model.Narrate(ctx, req)
	if err != nil || story == "" {
		s.metrics.CollaboratorErrors.WithLabelValues("narrator").Inc()
		if err != nil && !errors.Is(err, ml.ErrUnavailable) {
			s.logger.Warn("narrator failed", slog.String("error", err.Error()))
		}
		story = PlaceholderStory
		d.Degraded = true
	}
	d.Content = story

	if err := s.diaries.add(d); err != nil {
		s.persistFailed(storage.KeyDiaries, err)
		return Diary{}, err
	}
	return d, nil
}

// Diaries returns every diary entry, newest first.
func (s *Service) Diaries() []Diary {
	return s.diaries.all()
}

type diaryStore struct {
	mu      sync.Mutex
	kv      storage.KV
	logger  *slog.Logger
	entries []Diary
}

func openDiaries(kv storage.KV, logger *slog.Logger) (*diaryStore, error) {
	d := &diaryStore{kv: kv, logger: logger}
	return d, d.reload()
}

func (d *diaryStore) reload() error {
	entries, _, err := storage.LoadJSON[[]Diary](d.kv, storage.KeyDiaries, d.logger)
	if err != nil {
		return fmt.Errorf("diaries: load: %w", err)
	}
	d.mu.Lock()
	d.entries = entries
	d.mu.Unlock()
	return nil
}

func (d *diaryStore) add(e Diary) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := append([]Diary{e}, d.entries...)
	if err := storage.SaveJSON(d.kv, storage.KeyDiaries, next); err != nil {
		return fmt.Errorf("diaries: %w", err)
	}
	d.entries = next
	return nil
}

func (d *diaryStore) all() []Diary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Diary{}, d.entries...)
}

func (d *diaryStore) reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := storage.DeleteKey(d.kv, storage.KeyDiaries); err != nil {
		return fmt.Errorf("diaries: reset: %w", err)
	}
	d.entries = nil
	return nil
}
