// SPDX-License-Identifier: MIT
package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/geoanonymizer/internal/config"
)

// Server is the HTTP front end the manager runs. It blocks until ctx is
// cancelled, drains in-flight requests and returns nil on a clean stop.
type Server interface {
	ListenAndServe(ctx context.Context) error
}

// Watcher is a drop-folder watcher run alongside the server.
type Watcher interface {
	Run(ctx context.Context) error
}

// Deps contains dependencies required by the daemon Manager.
// This allows for clean dependency injection and easier testing.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	// Config is the resolved application configuration
	Config config.AppConfig

	// Server is the API server lifecycle
	Server Server

	// Watcher is the drop-folder watcher (optional)
	Watcher Watcher

	// ShutdownTimeout bounds how long Shutdown waits for subsystems and
	// hooks. Zero selects the 30 second default.
	ShutdownTimeout time.Duration
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.Server == nil {
		return ErrMissingServer
	}
	// Config validation is done by config.Loader
	return nil
}
