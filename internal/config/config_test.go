package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsWithOverrides(t *testing.T) {
	path := writeConfig(t, `
[data]
base_url = "https://data.example.com/podcasts/"
podcast = "freakshow"

[loader]
eager_rows = 8
`)

	cfg, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Error("Expected the file to be reported as read")
	}
	if cfg.Data.BaseURL != "https://data.example.com/podcasts" {
		t.Errorf("Trailing slash not trimmed: %q", cfg.Data.BaseURL)
	}
	if cfg.Loader.EagerRows != 8 {
		t.Errorf("Override not applied: %d", cfg.Loader.EagerRows)
	}
	if cfg.Loader.BatchSize != 10 {
		t.Errorf("Default not kept: %d", cfg.Loader.BatchSize)
	}
	if cfg.RetryBackoff() != 500*time.Millisecond {
		t.Errorf("Unexpected backoff: %v", cfg.RetryBackoff())
	}
	if cfg.MetadataTimeout() != 15*time.Second {
		t.Errorf("Unexpected metadata timeout: %v", cfg.MetadataTimeout())
	}
}

func TestLoad_MissingBaseURL(t *testing.T) {
	path := writeConfig(t, `
[data]
podcast = "freakshow"
`)
	if _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "base_url") {
		t.Errorf("Expected base_url error, got %v", err)
	}
}

func TestLoad_MissingFileFailsValidation(t *testing.T) {
	// No file means pure defaults, and the defaults carry no base URL
	path := filepath.Join(t.TempDir(), "nope.toml")
	if _, _, err := Load(path); err == nil {
		t.Error("Expected validation error for default config")
	}
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeConfig(t, `[data`)
	if _, _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestValidate_Bounds(t *testing.T) {
	cfg := Default()
	cfg.Data.BaseURL = "https://example.com"
	cfg.Data.Podcast = "p"

	cfg.Loader.BatchSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected batch_size error")
	}
	cfg.Loader.BatchSize = 1

	cfg.Resolver.DetailRetries = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected detail_retries error")
	}
	cfg.Resolver.DetailRetries = 0

	if err := cfg.Validate(); err != nil {
		t.Errorf("Valid config rejected: %v", err)
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Sample not written: %v", err)
	}
	if !strings.Contains(string(data), "base_url") {
		t.Error("Sample lacks base_url")
	}

	if err := WriteSample(path); err == nil {
		t.Error("Expected refusal to overwrite existing file")
	}
}
