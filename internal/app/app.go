package app

import (
	"context"
	"fmt"
	"net/http"

	"chatcore/internal/retention"
	"chatcore/pkg/clock"
	"chatcore/pkg/config"
	"chatcore/pkg/logger"
	"chatcore/pkg/persist"
	"chatcore/pkg/simulator"
	"chatcore/pkg/store"
)

// App encapsulates the engine components and lifecycle.
type App struct {
	cfg       *config.Config
	version   string
	commit    string
	buildDate string

	st      *store.Store
	sim     *simulator.Simulator
	adapter *persist.Adapter

	srv       *http.Server
	retCancel context.CancelFunc
}

// New initializes resources that do not require a running context: it
// opens the snapshot, restores conversation state, registers the
// configured conversations and wires the delivery simulator. Call Run to
// start the retention runner and the diagnostics server and block until
// shutdown.
func New(cfg *config.Config, version, commit, buildDate string) (*App, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	initValidation(cfg)

	adapter, err := persist.Open(cfg.Storage.DBPath, cfg.Storage.CacheSize.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", cfg.Storage.DBPath, err)
	}

	st := store.New(clock.Wall(), cfg.Identity.ParticipantID)

	restored, err := adapter.LoadConversations()
	if err != nil {
		_ = adapter.Close()
		return nil, fmt.Errorf("failed to restore conversations: %w", err)
	}
	for _, r := range restored {
		st.Restore(r.Meta, r.Messages)
	}
	for _, seed := range cfg.Identity.Conversations {
		st.Register(seed.ID, seed.Peer)
	}

	// persistence subscribes before the simulator so snapshot writes see
	// every mutation the simulator reacts to.
	adapter.Attach(st)
	sim := simulator.New(clock.Wall(), st, cfg.Simulator)

	return &App{
		cfg: cfg, version: version, commit: commit, buildDate: buildDate,
		st: st, sim: sim, adapter: adapter,
	}, nil
}

// Store exposes the message store for callers embedding the engine.
func (a *App) Store() *store.Store { return a.st }

// Run starts retention and the diagnostics HTTP server, then blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	cancel, err := retention.Start(ctx, a.cfg.Retention, a.adapter)
	if err != nil {
		return err
	}
	a.retCancel = cancel

	a.printBanner()

	errCh := a.startHTTP()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			runErr = err
		}
	}
	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	if a.srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		_ = a.srv.Shutdown(sctx)
		cancel()
	}
	if a.retCancel != nil {
		a.retCancel()
	}
	a.sim.Close()
	if err := a.adapter.Close(); err != nil {
		logger.Error("pebble_close_failed", "error", err)
	}
	logger.Info("engine_stopped")
}
