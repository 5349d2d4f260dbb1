// SPDX-License-Identifier: MIT
package config

import (
	"testing"
)

func TestMaskSecretsStruct(t *testing.T) {
	type redis struct {
		Addr     string
		Password string
	}
	type cfg struct {
		DataDir  string
		APIToken string
		Redis    redis
	}

	masked, ok := MaskSecrets(cfg{
		DataDir:  "/var/lib/geoanon",
		APIToken: "sk-12345",
		Redis:    redis{Addr: "localhost:6379", Password: "hunter2"},
	}).(map[string]any)
	if !ok {
		t.Fatal("expected map result for struct input")
	}

	if masked["DataDir"] != "/var/lib/geoanon" {
		t.Errorf("DataDir should pass through, got %v", masked["DataDir"])
	}
	if masked["APIToken"] != "***" {
		t.Errorf("APIToken should be masked, got %v", masked["APIToken"])
	}

	nested, ok := masked["Redis"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested map, got %T", masked["Redis"])
	}
	if nested["Addr"] != "localhost:6379" {
		t.Errorf("Addr should pass through, got %v", nested["Addr"])
	}
	if nested["Password"] != "***" {
		t.Errorf("Password should be masked, got %v", nested["Password"])
	}
}

func TestMaskSecretsMap(t *testing.T) {
	input := map[string]any{
		"strategy":     "round:2",
		"api_key":      "abc",
		"postgres_dsn": "postgres://u:p@db/geo",
	}

	masked, ok := MaskSecrets(input).(map[string]any)
	if !ok {
		t.Fatal("expected map result")
	}
	if masked["strategy"] != "round:2" {
		t.Errorf("strategy should pass through, got %v", masked["strategy"])
	}
	if masked["api_key"] != "***" {
		t.Errorf("api_key should be masked, got %v", masked["api_key"])
	}
	if masked["postgres_dsn"] != "***" {
		t.Errorf("postgres_dsn should be masked, got %v", masked["postgres_dsn"])
	}
}

func TestMaskSecretsSlice(t *testing.T) {
	type entry struct {
		Name   string
		Secret string
	}

	masked, ok := MaskSecrets([]entry{
		{Name: "a", Secret: "x"},
		{Name: "b", Secret: "y"},
	}).([]any)
	if !ok {
		t.Fatal("expected slice result")
	}
	if len(masked) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(masked))
	}
	first, ok := masked[0].(map[string]any)
	if !ok {
		t.Fatalf("expected map element, got %T", masked[0])
	}
	if first["Secret"] != "***" {
		t.Errorf("Secret should be masked, got %v", first["Secret"])
	}
}

func TestMaskSecretsPointer(t *testing.T) {
	type cfg struct{ Token string }

	if got := MaskSecrets((*cfg)(nil)); got != nil {
		t.Errorf("nil pointer should yield nil, got %v", got)
	}

	masked, ok := MaskSecrets(&cfg{Token: "t"}).(map[string]any)
	if !ok {
		t.Fatal("expected map result for pointer to struct")
	}
	if masked["Token"] != "***" {
		t.Errorf("Token should be masked, got %v", masked["Token"])
	}
}

func TestMaskSecretsNil(t *testing.T) {
	if got := MaskSecrets(nil); got != nil {
		t.Errorf("nil should yield nil, got %v", got)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"password", true},
		{"RedisPassword", true},
		{"api_key", true},
		{"APIToken", true},
		{"PostgisDSN", true},
		{"strategy", false},
		{"latColumn", false},
		{"dataDir", false},
	}

	for _, tt := range tests {
		if got := isSensitiveKey(tt.key); got != tt.want {
			t.Errorf("isSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestMaskURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"with credentials", "postgres://user:pass@db:5432/geo", "postgres://***@db:5432/geo"},
		{"no credentials", "postgres://db:5432/geo", "postgres://db:5432/geo"},
		{"redis url", "redis://:secret@cache:6379/0", "redis://***@cache:6379/0"},
		{"empty", "", ""},
		{"plain address", "localhost:6379", "localhost:6379"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskURL(tt.in); got != tt.want {
				t.Errorf("MaskURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
