// Package config loads the dashboard configuration from a TOML file,
// falling back to repository defaults when no file exists.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Data contains the metadata document tree and podcast selection.
type Data struct {
	BaseURL string            `toml:"base_url"`
	Podcast string            `toml:"podcast"`
	Feeds   map[string]string `toml:"feeds"` // podcast id -> RSS feed URL
}

// Resolver contains tuning for episode detail fetching.
type Resolver struct {
	DetailRetries  int `toml:"detail_retries"`
	RetryBackoffMS int `toml:"retry_backoff_ms"`
}

// Loader contains tuning for row-driven detail loading.
type Loader struct {
	EagerRows       int `toml:"eager_rows"`
	BatchSize       int `toml:"batch_size"`
	BackstopDelayMS int `toml:"backstop_delay_ms"`
}

// Playback contains tuning for the media controller.
type Playback struct {
	MetadataTimeoutSeconds int `toml:"metadata_timeout_seconds"`
}

// Config is the full dashboard configuration.
type Config struct {
	Data     Data     `toml:"data"`
	Resolver Resolver `toml:"resolver"`
	Loader   Loader   `toml:"loader"`
	Playback Playback `toml:"playback"`
}

const (
	defaultDetailRetries   = 2
	defaultRetryBackoffMS  = 500
	defaultEagerRows       = 5
	defaultBatchSize       = 10
	defaultBackstopDelayMS = 250
	defaultMetadataTimeout = 15
)

// Default returns a Config populated with repository defaults. The data
// section has no default base URL; it must come from the file or a flag.
func Default() Config {
	return Config{
		Resolver: Resolver{
			DetailRetries:  defaultDetailRetries,
			RetryBackoffMS: defaultRetryBackoffMS,
		},
		Loader: Loader{
			EagerRows:       defaultEagerRows,
			BatchSize:       defaultBatchSize,
			BackstopDelayMS: defaultBackstopDelayMS,
		},
		Playback: Playback{
			MetadataTimeoutSeconds: defaultMetadataTimeout,
		},
	}
}

// DefaultConfigPath returns the expanded default config file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podboard/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults; the second return reports whether a file was read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

// WriteSample writes the annotated sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Data.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/podboard/config.toml"
		}
		return fmt.Errorf("data.base_url is required. Edit %s (create with 'podboard config init')", defaultPath)
	}
	if c.Data.Podcast == "" {
		return errors.New("data.podcast must be set")
	}
	if c.Resolver.DetailRetries < 0 {
		return errors.New("resolver.detail_retries must not be negative")
	}
	if c.Loader.BatchSize < 1 {
		return errors.New("loader.batch_size must be at least 1")
	}
	if c.Playback.MetadataTimeoutSeconds < 1 {
		return errors.New("playback.metadata_timeout_seconds must be at least 1")
	}
	return nil
}

// RetryBackoff returns the resolver backoff as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Resolver.RetryBackoffMS) * time.Millisecond
}

// BackstopDelay returns the loader backstop delay as a duration.
func (c *Config) BackstopDelay() time.Duration {
	return time.Duration(c.Loader.BackstopDelayMS) * time.Millisecond
}

// MetadataTimeout returns the playback metadata wait as a duration.
func (c *Config) MetadataTimeout() time.Duration {
	return time.Duration(c.Playback.MetadataTimeoutSeconds) * time.Second
}

func (c *Config) normalize() {
	c.Data.BaseURL = strings.TrimRight(strings.TrimSpace(c.Data.BaseURL), "/")
	c.Data.Podcast = strings.TrimSpace(c.Data.Podcast)
	if c.Loader.EagerRows < 0 {
		c.Loader.EagerRows = 0
	}
	if c.Loader.BackstopDelayMS < 0 {
		c.Loader.BackstopDelayMS = 0
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return expanded, true, nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
