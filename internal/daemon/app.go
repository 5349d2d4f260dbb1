// SPDX-License-Identifier: MIT
package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/geoanonymizer/internal/config"
	"github.com/ManuGH/geoanonymizer/internal/history"
	"github.com/ManuGH/geoanonymizer/internal/store"
)

const (
	historyPruneInterval  = time.Hour
	storeMaintainInterval = 5 * time.Minute
)

// App owns the long-lived housekeeping loops (history pruning, store
// maintenance) and delegates server management to Manager.
type App struct {
	logger  zerolog.Logger
	manager Manager
	cfg     config.AppConfig
	history *history.Store
	store   store.Store
}

// NewApp creates a new App orchestrator. history and st may be nil; the
// corresponding loops are skipped.
func NewApp(logger zerolog.Logger, manager Manager, cfg config.AppConfig, hist *history.Store, st store.Store) *App {
	return &App{
		logger:  logger,
		manager: manager,
		cfg:     cfg,
		history: hist,
		store:   st,
	}
}

// Run starts all owned background loops and blocks until ctx is cancelled or
// a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// History pruning keeps the run log bounded. Best effort: failures are
	// logged, never fatal.
	if a.history != nil && a.cfg.History.Keep > 0 {
		g.Go(func() error {
			a.pruneHistory(ctx)
			ticker := time.NewTicker(historyPruneInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					a.pruneHistory(ctx)
				}
			}
		})
	}

	// Badger value-log GC reclaims space from overwritten mappings.
	if m, ok := a.store.(store.Maintainer); ok && a.cfg.Store.Backend == "badger" {
		g.Go(func() error {
			ticker := time.NewTicker(storeMaintainInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := m.Maintain(ctx); err != nil {
						a.logger.Warn().
							Err(err).
							Str("event", "store.maintain_failed").
							Msg("store maintenance failed")
					}
				}
			}
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

func (a *App) pruneHistory(ctx context.Context) {
	pruned, err := a.history.Prune(ctx, a.cfg.History.Keep)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("event", "history.prune_failed").
			Msg("history prune failed")
		return
	}
	if pruned > 0 {
		a.logger.Info().
			Int64("pruned", pruned).
			Str("event", "history.prune").
			Msg("pruned old runs")
	}
}
