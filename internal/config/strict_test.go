// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestStrictParseUnknownField(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
logLevel: debug
typoedField: true
`)

	loader := NewLoader(path, "1.0.0")
	_, err := loader.Load()
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !errors.Is(err, ErrUnknownConfigField) {
		t.Errorf("expected ErrUnknownConfigField, got: %v", err)
	}
}

func TestStrictParseUnknownNestedField(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
store:
  backend: memory
  flushInterval: 5s
`)

	loader := NewLoader(path, "1.0.0")
	_, err := loader.Load()
	if !errors.Is(err, ErrUnknownConfigField) {
		t.Errorf("expected ErrUnknownConfigField for nested typo, got: %v", err)
	}
}

func TestStrictParseMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
logLevel: debug
---
logLevel: info
`)

	loader := NewLoader(path, "1.0.0")
	if _, err := loader.Load(); err == nil {
		t.Fatal("expected error for multi-document config")
	}
}

func TestStrictParseRejectsNonYAMLExtension(t *testing.T) {
	path := writeConfig(t, "config.json", `{"logLevel": "debug"}`)

	loader := NewLoader(path, "1.0.0")
	if _, err := loader.Load(); err == nil {
		t.Fatal("expected error for non-YAML extension")
	}
}

func TestStrictParseEmptyFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", "")
	t.Setenv(EnvDataDir, t.TempDir())

	loader := NewLoader(path, "1.0.0")
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("empty config file should load defaults: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("expected default log level, got %s", cfg.LogLevel)
	}
}

func TestStrictParseYMLExtension(t *testing.T) {
	path := writeConfig(t, "config.yml", "logLevel: warn\n")
	t.Setenv(EnvDataDir, t.TempDir())

	loader := NewLoader(path, "1.0.0")
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() failed for .yml: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected LogLevel=warn, got %s", cfg.LogLevel)
	}
}
