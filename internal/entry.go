// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/cradle/internal/analytics"
	"github.com/starford/cradle/internal/api"
	"github.com/starford/cradle/internal/mcpserver"
	"github.com/starford/cradle/internal/metrics"
	"github.com/starford/cradle/internal/ml"
	"github.com/starford/cradle/internal/sse"
	"github.com/starford/cradle/internal/storage"
	"github.com/starford/cradle/internal/tracker"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(app.logOutput, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("ai_provider", cfg.AI.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	m := metrics.New()
	broker := sse.NewBroker(cfg.Events.SummaryThrottle,
		sse.WithClientGauge(func(n int) { m.SSEClients.Set(float64(n)) }))
	defer broker.Close()

	deps, err := openDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	svc, err := deps.service(ctx, cfg, logger,
		tracker.WithEvents(broker),
		tracker.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("init tracker: %w", err)
	}
	defer svc.Close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, m.Handler())
	}

	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload a store when its file is edited outside the process.
	if deps.fs != nil && cfg.Storage.Watch {
		g.Go(func() error {
			err := storage.Watch(gCtx, deps.fs, cfg.Storage.Debounce, logger, func(key string) {
				if err := svc.Reload(key); err != nil {
					logger.Warn("reload failed", slog.String("key", key), slog.String("error", err.Error()))
				}
			})
			if err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the tracker over MCP on stdin/stdout until stdin closes.
// Logs go to stderr unless another output is configured.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stderr
	}
	logger := newLogger(out, cfg.App.LogLevel)

	deps, err := openDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	svc, err := deps.service(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init tracker: %w", err)
	}
	defer svc.Close()

	logger.Info("MCP server starting", slog.String("storage_backend", cfg.Storage.Backend))
	return mcpserver.New(svc).ServeStdio()
}

func newLogger(out io.Writer, level slog.Level) *slog.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// deps holds what the tracker is built on.
type deps struct {
	kv      storage.KV
	fs      *storage.FS
	model   ml.Model
	table   *analytics.Table
	closers []io.Closer
}

func openDeps(ctx context.Context, cfg *Config, logger *slog.Logger) (*deps, error) {
	d := &deps{}

	switch cfg.Storage.Backend {
	case BackendSQLite:
		db, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		d.kv = db
		d.closers = append(d.closers, db)
	default:
		if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		fs, err := storage.NewFS(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		d.kv, d.fs = fs, fs
	}

	if cfg.Reference.Path != "" {
		t, err := analytics.LoadFile(cfg.Reference.Path)
		if err != nil {
			d.close(logger)
			return nil, fmt.Errorf("load reference table: %w", err)
		}
		d.table = t
		logger.Info("Reference table loaded", slog.String("path", cfg.Reference.Path))
	}

	model, err := ml.New(ctx, cfg.AI)
	if err != nil {
		d.close(logger)
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	d.model = model
	d.closers = append(d.closers, model)
	return d, nil
}

func (d *deps) service(ctx context.Context, cfg *Config, logger *slog.Logger, extra ...tracker.Option) (*tracker.Service, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}
	opts := []tracker.Option{
		tracker.WithLogger(logger),
		tracker.WithModel(d.model),
		tracker.WithLocation(loc),
		tracker.WithTimerInterval(cfg.Timer.TickInterval),
	}
	if d.table != nil {
		opts = append(opts, tracker.WithReference(d.table))
	}
	return tracker.New(ctx, d.kv, append(opts, extra...)...)
}

func (d *deps) close(logger *slog.Logger) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}
