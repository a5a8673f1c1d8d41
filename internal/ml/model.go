// Package ml wraps the generative-model collaborators: diary narration and
// stool photo analysis.
package ml

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrUnavailable is returned when no model provider is configured.
var ErrUnavailable = errors.New("ml: model provider unavailable")

// Providers.
const (
	ProviderDisabled = "disabled"
	ProviderVertex   = "vertex"
)

// NarrativeRequest is the input for a diary entry.
type NarrativeRequest struct {
	ChildName string
	Text      string
	Summary   string
}

// StoolAnalysis is the structured result of a stool photo.
type StoolAnalysis struct {
	Color       string `json:"color"`
	Firmness    string `json:"firmness"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
	Advice      string `json:"advice"`
}

// Narrator writes a short first-person diary entry from the parent's text.
type Narrator interface {
	Narrate(ctx context.Context, req NarrativeRequest) (string, error)
}

// StoolAnalyzer classifies a stool photo.
type StoolAnalyzer interface {
	AnalyzeStool(ctx context.Context, image []byte, mimeType string) (StoolAnalysis, error)
}

// Model is a provider implementing both collaborators.
type Model interface {
	Narrator
	StoolAnalyzer
	Close() error
}

// Config selects and configures the provider.
type Config struct {
	Provider        string `yaml:"provider"`
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	CredentialsFile string `yaml:"credentials_file"`
	TextModel       string `yaml:"text_model"`
	VisionModel     string `yaml:"vision_model"`
}

// Validate validates the provider configuration.
func (c *Config) Validate() error {
	if c.Provider == "" {
		c.Provider = ProviderDisabled
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderDisabled, ProviderVertex)),
		validation.Field(&c.ProjectID, validation.When(c.Provider == ProviderVertex, validation.Required)),
		validation.Field(&c.Location, validation.When(c.Provider == ProviderVertex, validation.Required)),
		validation.Field(&c.TextModel, validation.When(c.Provider == ProviderVertex, validation.Required)),
		validation.Field(&c.VisionModel, validation.When(c.Provider == ProviderVertex, validation.Required)),
	)
}

// New creates the configured provider.
func New(ctx context.Context, cfg Config) (Model, error) {
	switch cfg.Provider {
	case "", ProviderDisabled:
		return Disabled{}, nil
	case ProviderVertex:
		return NewVertex(ctx, cfg)
	default:
		return nil, fmt.Errorf("ml: unsupported provider %q", cfg.Provider)
	}
}

// Disabled is the no-op provider.
type Disabled struct{}

func (Disabled) Narrate(context.Context, NarrativeRequest) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) AnalyzeStool(context.Context, []byte, string) (StoolAnalysis, error) {
	return StoolAnalysis{}, ErrUnavailable
}

func (Disabled) Close() error { return nil }
