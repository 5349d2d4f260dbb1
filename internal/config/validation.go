// SPDX-License-Identifier: MIT

package config

import (
	"fmt"

	"github.com/ManuGH/geoanonymizer/internal/validate"
	"github.com/ManuGH/geoanonymizer/spatial/geofence"
	"github.com/ManuGH/geoanonymizer/spatial/mask"
)

// Validate checks a resolved AppConfig for consistency before any component
// is started with it.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("LogLevel", "must be one of debug, info, warn, error", cfg.LogLevel)
	}

	v.Directory("DataDir", cfg.DataDir, false)

	// Run settings
	if cfg.Run.Strategy != "" {
		if _, err := mask.Parse(cfg.Run.Strategy); err != nil {
			v.AddError("Strategy", fmt.Sprintf("invalid strategy: %v", err), cfg.Run.Strategy)
		}
	}
	v.OneOf("OnError", cfg.Run.OnError, []string{"fail", "skip", "keep"})
	v.Range("Decimals", cfg.Run.Decimals, 0, 15)
	if cfg.Run.FencePolicy != "" {
		if _, err := geofence.ParsePolicy(cfg.Run.FencePolicy); err != nil {
			v.AddError("FencePolicy", fmt.Sprintf("invalid fence policy: %v", err), cfg.Run.FencePolicy)
		}
	}
	if cfg.Run.FencePolicy != "" && cfg.Run.FencePath == "" {
		v.AddError("FencePath", "must be set when a fence policy is configured", "")
	}

	// Store settings
	v.OneOf("StoreBackend", cfg.Store.Backend, []string{"memory", "badger", "redis"})
	switch cfg.Store.Backend {
	case "badger":
		v.WritableDirectory("StoreDir", cfg.Store.Dir, false)
	case "redis":
		v.NotEmpty("RedisAddr", cfg.Store.Redis.Addr)
		v.NonNegative("RedisDB", cfg.Store.Redis.DB)
	}

	// History settings
	v.NotEmpty("HistoryPath", cfg.History.Path)
	v.NonNegative("HistoryKeep", cfg.History.Keep)

	// API settings
	v.NotEmpty("APIListenAddr", cfg.API.ListenAddr)
	v.Positive("APIMaxConns", cfg.API.MaxConns)
	if cfg.API.BodyLimit <= 0 {
		v.AddError("APIBodyLimit", "must be positive", cfg.API.BodyLimit)
	}
	if cfg.API.RateLimit.Enabled {
		v.Positive("RateLimitRPS", cfg.API.RateLimit.RPS)
		v.Positive("RateLimitBurst", cfg.API.RateLimit.Burst)
	}

	// Telemetry settings
	if cfg.Telemetry.Enabled {
		v.NotEmpty("OTELEndpoint", cfg.Telemetry.Endpoint)
		v.OneOf("OTELProtocol", cfg.Telemetry.Protocol, []string{"grpc", "http"})
		if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
			v.AddError("OTELSampleRatio", "must be between 0 and 1", cfg.Telemetry.SampleRatio)
		}
	}

	// Watch settings
	if cfg.Watch.Enabled {
		v.Directory("WatchDir", cfg.Watch.Dir, true)
		v.WritableDirectory("WatchOut", cfg.Watch.OutDir, false)
		v.NotEmpty("WatchPattern", cfg.Watch.Pattern)
		if cfg.Watch.Settle < 0 {
			v.AddError("WatchSettle", "must be >= 0", cfg.Watch.Settle)
		}
	}

	if !v.IsValid() {
		return v.Err()
	}

	return nil
}
