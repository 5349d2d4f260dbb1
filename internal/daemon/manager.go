// SPDX-License-Identifier: MIT
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 30 * time.Second

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle: starting subsystems, handling shutdown.
type Manager interface {
	// Start starts all configured subsystems and blocks until shutdown
	Start(ctx context.Context) error

	// Shutdown gracefully shuts down all subsystems
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown
	RegisterShutdownHook(name string, hook ShutdownHook)
}

// manager implements the Manager interface.
type manager struct {
	deps            Deps
	shutdownTimeout time.Duration

	// Subsystems run on runCtx; Shutdown cancels it and waits on wg.
	runCancel context.CancelFunc
	wg        sync.WaitGroup

	// Shutdown hooks (LIFO order)
	shutdownHooks []namedHook

	// State
	started  bool
	stopping bool
	mu       sync.Mutex

	logger zerolog.Logger
}

// namedHook represents a shutdown hook with a name for logging
type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager with the given dependencies.
func NewManager(deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	timeout := deps.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &manager{
		deps:            deps,
		shutdownTimeout: timeout,
		logger:          deps.Logger.With().Str("component", "manager").Logger(),
		shutdownHooks:   make([]namedHook, 0),
	}, nil
}

// Start starts all configured subsystems and blocks until context is cancelled
// or a subsystem fails.
func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.runCancel = cancel
	m.started = true
	m.mu.Unlock()

	m.logger.Info().
		Str("event", "daemon.start").
		Str("listen", m.deps.Config.API.ListenAddr).
		Bool("watch", m.deps.Watcher != nil).
		Dur("shutdown_timeout", m.shutdownTimeout).
		Msg("starting daemon manager")

	// Buffered for one failure per subsystem so no sender can block.
	errChan := make(chan error, 2)

	m.startSubsystem(runCtx, "api", errChan, m.deps.Server.ListenAndServe)
	if m.deps.Watcher != nil {
		m.startSubsystem(runCtx, "watch", errChan, m.deps.Watcher.Run)
	}

	select {
	case err := <-errChan:
		m.logger.Error().Err(err).Msg("subsystem error, initiating shutdown")
		// Detached but bounded so shutdown can complete even if the
		// parent is already cancelled.
		shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout)
		defer cancelShutdown()
		if shutdownErr := m.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("subsystem error and shutdown failure: %w", errors.Join(err, shutdownErr))
		}
		return err
	case <-ctx.Done():
		m.logger.Info().Msg("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout)
		defer cancelShutdown()
		return m.Shutdown(shutdownCtx)
	}
}

// startSubsystem runs one subsystem until runCtx is cancelled. Only real
// failures reach errChan; a clean exit after cancellation does not.
func (m *manager) startSubsystem(runCtx context.Context, name string, errChan chan<- error, run func(context.Context) error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error().
				Err(err).
				Str("subsystem", name).
				Msg("subsystem failed")
			errChan <- fmt.Errorf("%s: %w", name, err)
			return
		}
		m.logger.Debug().Str("subsystem", name).Msg("subsystem stopped")
	}()
}

func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	cancelRun := m.runCancel
	m.mu.Unlock()

	m.logger.Info().Str("event", "daemon.stop").Msg("shutting down daemon manager")

	// Bounded shutdown context independent from caller cancellation.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout)
	defer cancel()

	var errs []error

	// Stop subsystems and wait for them to drain.
	cancelRun()
	drained := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		m.logger.Debug().Msg("subsystems drained")
	case <-shutdownCtx.Done():
		errs = append(errs, fmt.Errorf("subsystem drain: %w", shutdownCtx.Err()))
	}

	// Execute shutdown hooks in reverse order (LIFO)
	m.logger.Debug().Int("hooks", len(m.shutdownHooks)).Msg("executing shutdown hooks")
	for i := len(m.shutdownHooks) - 1; i >= 0; i-- {
		hook := m.shutdownHooks[i]
		m.logger.Debug().Str("hook", hook.name).Msg("executing shutdown hook")

		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
		} else {
			m.logger.Debug().
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook completed")
		}
	}

	if len(errs) > 0 {
		m.logger.Error().
			Int("error_count", len(errs)).
			Msg("shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	m.logger.Info().Msg("daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
// Hooks are executed in reverse registration order (LIFO).
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHooks = append(m.shutdownHooks, namedHook{
		name: name,
		hook: hook,
	})
	m.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}
