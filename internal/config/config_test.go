package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IshaanNene/fetchkit/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero streams", func(c *Config) { c.Fetch.MaxConcurrentStreams = 0 }},
		{"negative streams", func(c *Config) { c.Fetch.MaxConcurrentStreams = -3 }},
		{"too many streams", func(c *Config) { c.Fetch.MaxConcurrentStreams = 1001 }},
		{"zero timeout", func(c *Config) { c.Fetch.RequestTimeout = 0 }},
		{"negative rate", func(c *Config) { c.Fetch.RateLimit = -1 }},
		{"zero body size", func(c *Config) { c.Fetch.MaxBodySize = 0 }},
		{"zero ftp dial timeout", func(c *Config) { c.FTP.DialTimeout = 0 }},
		{"unknown hash", func(c *Config) { c.Hash.Algorithm = "crc32" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 70000 }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := Validate(cfg); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetchkit.yaml")
	data := []byte(`
fetch:
  max_concurrent_streams: 8
  request_timeout: 5s
hash:
  algorithm: sha256
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Fetch.MaxConcurrentStreams != 8 {
		t.Errorf("expected 8 streams, got %d", cfg.Fetch.MaxConcurrentStreams)
	}
	if cfg.Fetch.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.Fetch.RequestTimeout)
	}
	if cfg.Hash.Algorithm != "sha256" {
		t.Errorf("expected sha256, got %q", cfg.Hash.Algorithm)
	}
	// Untouched keys keep their defaults
	if cfg.FTP.Username != "anonymous" {
		t.Errorf("expected default ftp user, got %q", cfg.FTP.Username)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FETCHKIT_FETCH_MAX_CONCURRENT_STREAMS", "12")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for explicit missing config file")
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Fetch.MaxConcurrentStreams != 12 {
		t.Errorf("expected env override 12, got %d", cfg.Fetch.MaxConcurrentStreams)
	}
}

func TestValidateLocator(t *testing.T) {
	if err := ValidateLocator("https://example.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateLocator("gopher://example.com"); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
