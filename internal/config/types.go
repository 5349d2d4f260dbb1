// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"time"
)

// FileConfig represents the YAML configuration structure.
// Pointers distinguish "not set" from explicit zero values so the file can
// partially override defaults.
type FileConfig struct {
	DataDir    string `yaml:"dataDir,omitempty"`
	LogLevel   string `yaml:"logLevel,omitempty"`
	LogService string `yaml:"logService,omitempty"`

	Strategy string        `yaml:"strategy,omitempty"`
	Columns  ColumnsConfig `yaml:"columns,omitempty"`
	Decimals *int          `yaml:"decimals,omitempty"`
	OnError  string        `yaml:"onError,omitempty"`
	Seed     *int64        `yaml:"seed,omitempty"`
	Validate *bool         `yaml:"validate,omitempty"`

	Fence     FenceConfig      `yaml:"fence,omitempty"`
	Store     *StoreConfig     `yaml:"store,omitempty"`
	History   *HistoryConfig   `yaml:"history,omitempty"`
	API       *APIConfig       `yaml:"api,omitempty"`
	Metrics   *MetricsConfig   `yaml:"metrics,omitempty"`
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
	Watch     *WatchConfig     `yaml:"watch,omitempty"`
	Sink      *SinkConfig      `yaml:"sink,omitempty"`
}

// ColumnsConfig names or indexes the coordinate columns in the input.
type ColumnsConfig struct {
	Lat string `yaml:"lat,omitempty"`
	Lon string `yaml:"lon,omitempty"`
	Alt string `yaml:"alt,omitempty"`
}

// FenceConfig points at a GeoJSON fence and its policy.
type FenceConfig struct {
	Path   string `yaml:"path,omitempty"`
	Policy string `yaml:"policy,omitempty"`
}

// StoreConfig selects the consistency store backend.
type StoreConfig struct {
	Backend string       `yaml:"backend,omitempty"` // "memory", "badger" or "redis"
	Dir     string       `yaml:"dir,omitempty"`
	Redis   *RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig holds redis client settings for the redis store backend.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       *int   `yaml:"db,omitempty"`
}

// HistoryConfig holds run history settings.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
	Keep *int   `yaml:"keep,omitempty"`
}

// APIConfig holds API server configuration.
type APIConfig struct {
	ListenAddr string           `yaml:"listenAddr,omitempty"`
	Token      string           `yaml:"token,omitempty"`
	Anonymous  *bool            `yaml:"anonymous,omitempty"`
	MaxConns   *int             `yaml:"maxConns,omitempty"`
	BodyLimit  *int64           `yaml:"bodyLimit,omitempty"`
	RateLimit  *RateLimitConfig `yaml:"rateLimit,omitempty"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
	RPS     *int  `yaml:"rps,omitempty"`
	Burst   *int  `yaml:"burst,omitempty"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled     *bool    `yaml:"enabled,omitempty"`
	Endpoint    string   `yaml:"endpoint,omitempty"`
	Protocol    string   `yaml:"protocol,omitempty"` // "grpc" or "http"
	Insecure    *bool    `yaml:"insecure,omitempty"`
	SampleRatio *float64 `yaml:"sampleRatio,omitempty"`
}

// WatchConfig holds drop-folder watcher settings.
type WatchConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
	OutDir  string `yaml:"outDir,omitempty"`
	Pattern string `yaml:"pattern,omitempty"`
	Settle  string `yaml:"settle,omitempty"` // e.g. "2s"
}

// SinkConfig holds optional output sinks beyond the default CSV file.
type SinkConfig struct {
	PostGIS *PostGISConfig `yaml:"postgis,omitempty"`
}

// PostGISConfig holds the PostGIS sink settings.
type PostGISConfig struct {
	DSN   string `yaml:"dsn,omitempty"`
	Table string `yaml:"table,omitempty"`
}

// AppConfig holds all resolved configuration for the application.
type AppConfig struct {
	Version    string
	DataDir    string
	LogLevel   string
	LogService string

	Run       RunSettings
	Store     StoreSettings
	History   HistorySettings
	API       APISettings
	Metrics   MetricsSettings
	Telemetry TelemetrySettings
	Watch     WatchSettings
	Sink      SinkSettings
}

// RunSettings carries the per-run anonymization defaults.
type RunSettings struct {
	Strategy  string
	LatColumn string
	LonColumn string
	AltColumn string
	Decimals  int
	OnError   string
	Seed      int64 // 0 selects a random seed per run
	Validate  bool

	FencePath   string
	FencePolicy string
}

// StoreSettings selects and configures the consistency store backend.
type StoreSettings struct {
	Backend string
	Dir     string
	Redis   RedisSettings
}

// RedisSettings holds the resolved redis client settings.
type RedisSettings struct {
	Addr     string
	Password string
	DB       int
}

// HistorySettings holds the resolved run history settings.
type HistorySettings struct {
	Path string
	Keep int
}

// APISettings holds the resolved API server settings.
type APISettings struct {
	ListenAddr string
	Token      string

	// Anonymous serves /v1 without authentication. Without it, an empty
	// Token fails closed and every /v1 request is rejected.
	Anonymous bool

	MaxConns  int
	BodyLimit int64
	RateLimit RateLimitSettings
}

// RateLimitSettings holds the resolved rate limiter settings.
type RateLimitSettings struct {
	Enabled bool
	RPS     int
	Burst   int
}

// MetricsSettings holds the resolved metrics settings.
type MetricsSettings struct {
	Enabled bool
}

// TelemetrySettings holds the resolved OpenTelemetry settings.
type TelemetrySettings struct {
	Enabled     bool
	Endpoint    string
	Protocol    string
	Insecure    bool
	SampleRatio float64
}

// WatchSettings holds the resolved drop-folder watcher settings.
type WatchSettings struct {
	Enabled bool
	Dir     string
	OutDir  string
	Pattern string
	Settle  time.Duration
}

// SinkSettings holds the resolved sink settings.
type SinkSettings struct {
	PostGIS PostGISSettings
}

// PostGISSettings holds the resolved PostGIS sink settings.
type PostGISSettings struct {
	DSN   string
	Table string
}

// String implements fmt.Stringer with a redacted representation so the
// config can be logged without leaking tokens or connection credentials.
func (c AppConfig) String() string {
	return fmt.Sprintf("%+v", MaskSecrets(c))
}
