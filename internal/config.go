package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cradle/internal/ml"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Storage   StorageConfig     `yaml:"storage"`
	Auth      AuthConfig        `yaml:"auth"`
	Timer     TimerConfig       `yaml:"timer"`
	AI        ml.Config         `yaml:"ai"`
	Reference ReferenceConfig   `yaml:"reference"`
	Metrics   MetricsConfig     `yaml:"metrics"`
	Events    EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Timer.Validate(); err != nil {
		return err
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	return c.Metrics.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// Timezone is the IANA zone calendar days are read in. Empty means the
	// host's local zone.
	Timezone string `yaml:"timezone"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// Location resolves Timezone.
func (c *ApplicationConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app: timezone: %w", err)
	}
	return loc, nil
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects where profile, records and growth are kept.
//
// The file backend writes one JSON document per key under Dir and, when
// Watch is set, reloads a store when its file is edited externally. The
// sqlite backend keeps the same documents in a single database file.
type StorageConfig struct {
	Backend    string        `yaml:"backend"`
	Dir        string        `yaml:"dir"`
	SQLitePath string        `yaml:"sqlite_path"`
	Watch      bool          `yaml:"watch"`
	Debounce   time.Duration `yaml:"debounce"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendFile, BackendSQLite)),
		validation.Field(&c.Dir, validation.When(c.Backend == BackendFile, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Backend == BackendSQLite, validation.Required)),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// TimerConfig holds the feeding timer settings.
type TimerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

// Validate validates the timer configuration.
func (c *TimerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TickInterval, validation.Required, validation.Min(10*time.Millisecond)),
	)
}

// ReferenceConfig points at an optional growth reference table that
// replaces the embedded one.
type ReferenceConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the metrics configuration.
func (c *MetricsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// EventsConfig holds SSE settings.
type EventsConfig struct {
	SummaryThrottle time.Duration `yaml:"summary_throttle"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Backend:    BackendFile,
			Dir:        "./data",
			SQLitePath: "./cradle.db",
			Watch:      true,
			Debounce:   200 * time.Millisecond,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Timer: TimerConfig{
			TickInterval: time.Second,
		},
		AI: ml.Config{
			Provider: ml.ProviderDisabled,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Events: EventsConfig{
			SummaryThrottle: 2 * time.Second,
		},
	}
}
