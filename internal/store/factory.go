// SPDX-License-Identifier: MIT
package store

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Config selects and configures a store backend.
type Config struct {
	Backend string // memory, badger, redis
	Dir     string // badger data directory
	Redis   RedisConfig
}

// Open creates a store for the configured backend. All backends are wrapped
// with operation metrics.
func Open(cfg Config, logger zerolog.Logger) (Store, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = "memory"
	}

	switch backend {
	case "memory":
		return instrument(backend, NewMemoryStore()), nil
	case "badger":
		s, err := OpenBadgerStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return instrument(backend, s), nil
	case "redis":
		s, err := OpenRedisStore(cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return instrument(backend, s), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}
