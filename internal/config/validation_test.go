// SPDX-License-Identifier: MIT
package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) AppConfig {
	t.Helper()
	dataDir := t.TempDir()
	return AppConfig{
		Version:  "test",
		DataDir:  dataDir,
		LogLevel: "info",
		Run: RunSettings{
			Strategy: "round:2",
			OnError:  "fail",
			Decimals: 5,
			Validate: true,
		},
		Store: StoreSettings{Backend: "memory"},
		History: HistorySettings{
			Path: dataDir + "/history.db",
			Keep: 1000,
		},
		API: APISettings{
			ListenAddr: ":8484",
			MaxConns:   256,
			BodyLimit:  64 << 20,
			RateLimit:  RateLimitSettings{Enabled: true, RPS: 10, Burst: 20},
		},
		Telemetry: TelemetrySettings{
			Protocol:    "grpc",
			SampleRatio: 1.0,
		},
		Watch: WatchSettings{Settle: 2 * time.Second},
	}
}

func TestValidateValidConfig(t *testing.T) {
	if err := Validate(validConfig(t)); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateInvalidStrategy(t *testing.T) {
	cfg := validConfig(t)
	cfg.Run.Strategy = "teleport:100m"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	if !strings.Contains(err.Error(), "Strategy") {
		t.Errorf("error should name the Strategy field: %v", err)
	}
}

func TestValidateEmptyStrategyAllowed(t *testing.T) {
	// An empty strategy is valid at config level; the CLI and API require
	// one per run.
	cfg := validConfig(t)
	cfg.Run.Strategy = ""
	if err := Validate(cfg); err != nil {
		t.Fatalf("empty strategy should validate: %v", err)
	}
}

func TestValidateInvalidLogLevel(t *testing.T) {
	cfg := validConfig(t)
	cfg.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidateOnError(t *testing.T) {
	cfg := validConfig(t)
	cfg.Run.OnError = "panic"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid onError mode")
	}
}

func TestValidateDecimalsRange(t *testing.T) {
	cfg := validConfig(t)
	cfg.Run.Decimals = 16
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for decimals out of range")
	}
}

func TestValidateFencePolicyRequiresPath(t *testing.T) {
	cfg := validConfig(t)
	cfg.Run.FencePolicy = "drop-outside"
	cfg.Run.FencePath = ""
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for fence policy without path")
	}
	if !strings.Contains(err.Error(), "FencePath") {
		t.Errorf("error should name FencePath: %v", err)
	}
}

func TestValidateInvalidFencePolicy(t *testing.T) {
	cfg := validConfig(t)
	cfg.Run.FencePolicy = "explode-outside"
	cfg.Run.FencePath = "fences/city.geojson"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown fence policy")
	}
}

func TestValidateStoreBackend(t *testing.T) {
	cfg := validConfig(t)
	cfg.Store.Backend = "bolt"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown store backend")
	}
}

func TestValidateRedisBackendRequiresAddr(t *testing.T) {
	cfg := validConfig(t)
	cfg.Store.Backend = "redis"
	cfg.Store.Redis.Addr = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for redis backend without address")
	}

	cfg.Store.Redis.Addr = "localhost:6379"
	if err := Validate(cfg); err != nil {
		t.Fatalf("redis backend with address should validate: %v", err)
	}
}

func TestValidateBadgerBackendStoreDir(t *testing.T) {
	cfg := validConfig(t)
	cfg.Store.Backend = "badger"
	cfg.Store.Dir = t.TempDir()
	if err := Validate(cfg); err != nil {
		t.Fatalf("badger backend with writable dir should validate: %v", err)
	}
}

func TestValidateRateLimit(t *testing.T) {
	cfg := validConfig(t)
	cfg.API.RateLimit.RPS = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for zero RPS with rate limiting enabled")
	}

	// Disabled rate limiting skips the RPS check.
	cfg.API.RateLimit.Enabled = false
	if err := Validate(cfg); err != nil {
		t.Fatalf("disabled rate limit should skip RPS check: %v", err)
	}
}

func TestValidateTelemetry(t *testing.T) {
	cfg := validConfig(t)
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled telemetry without endpoint")
	}

	cfg.Telemetry.Endpoint = "localhost:4317"
	cfg.Telemetry.SampleRatio = 1.5
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for sample ratio > 1")
	}

	cfg.Telemetry.SampleRatio = 0.1
	if err := Validate(cfg); err != nil {
		t.Fatalf("valid telemetry config rejected: %v", err)
	}
}

func TestValidateWatch(t *testing.T) {
	cfg := validConfig(t)
	cfg.Watch.Enabled = true
	cfg.Watch.Dir = cfg.DataDir + "/does-not-exist"
	cfg.Watch.OutDir = t.TempDir()
	cfg.Watch.Pattern = "*.csv"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing watch dir")
	}

	cfg.Watch.Dir = t.TempDir()
	if err := Validate(cfg); err != nil {
		t.Fatalf("valid watch config rejected: %v", err)
	}

	cfg.Watch.Pattern = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty watch pattern")
	}
}
