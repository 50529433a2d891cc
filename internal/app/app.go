package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/codepair/codepair-server/internal/config"
	"github.com/codepair/codepair-server/internal/core"
	"github.com/codepair/codepair-server/internal/runner"
	"github.com/codepair/codepair-server/internal/store"
	"github.com/codepair/codepair-server/internal/store/sqlite"
	transporthttp "github.com/codepair/codepair-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	var st store.Store
	if cfg.HistoryDBPath != "" {
		s, err := sqlite.New(cfg.HistoryDBPath)
		if err != nil {
			return nil, fmt.Errorf("init history store: %w", err)
		}
		st = s
		logger.Info().Str("db_path", cfg.HistoryDBPath).Msg("execution history enabled")
	}

	run := runner.NewClient(cfg.ExecuteURL, cfg.ExecuteTimeout, logger)
	hub := core.NewHub(run, st, logger)
	server := transporthttp.NewServer(hub, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the hub and HTTP server and blocks until context
// cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the history store if one was configured.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close history store")
		}
	}
}
