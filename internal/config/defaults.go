// SPDX-License-Identifier: MIT

package config

import "time"

// Default values applied before file and environment merging.
const (
	DefaultDataDir     = "data"
	DefaultLogLevel    = "info"
	DefaultOnError     = "fail"
	DefaultStoreName   = "memory"
	DefaultHistoryKeep = 1000
	DefaultListenAddr  = ":8484"
	DefaultMaxConns    = 256
	DefaultBodyLimit   = 64 << 20 // 64 MiB request bodies
	DefaultRateRPS     = 10
	DefaultRateBurst   = 20
	DefaultOTLPAddr    = "localhost:4317"
	DefaultPattern     = "*.csv"
	DefaultSettle      = 2 * time.Second
	DefaultSinkTable   = "anonymized_points"
)

func (l *Loader) setDefaults(cfg *AppConfig) {
	cfg.DataDir = DefaultDataDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogService = "geoanonymizer"

	cfg.Run = RunSettings{
		OnError:  DefaultOnError,
		Validate: true,
	}

	cfg.Store = StoreSettings{
		Backend: DefaultStoreName,
	}

	cfg.History = HistorySettings{
		Keep: DefaultHistoryKeep,
	}

	cfg.API = APISettings{
		ListenAddr: DefaultListenAddr,
		MaxConns:   DefaultMaxConns,
		BodyLimit:  DefaultBodyLimit,
		RateLimit: RateLimitSettings{
			Enabled: true,
			RPS:     DefaultRateRPS,
			Burst:   DefaultRateBurst,
		},
	}

	cfg.Metrics = MetricsSettings{Enabled: true}

	cfg.Telemetry = TelemetrySettings{
		Endpoint:    DefaultOTLPAddr,
		Protocol:    "grpc",
		Insecure:    true,
		SampleRatio: 1.0,
	}

	cfg.Watch = WatchSettings{
		Pattern: DefaultPattern,
		Settle:  DefaultSettle,
	}

	cfg.Sink = SinkSettings{
		PostGIS: PostGISSettings{Table: DefaultSinkTable},
	}
}
