package config

import (
	"fmt"

	"github.com/IshaanNene/fetchkit/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Fetch.MaxConcurrentStreams < 1 {
		return fmt.Errorf("fetch.max_concurrent_streams must be >= 1, got %d", cfg.Fetch.MaxConcurrentStreams)
	}
	if cfg.Fetch.MaxConcurrentStreams > 1000 {
		return fmt.Errorf("fetch.max_concurrent_streams must be <= 1000, got %d", cfg.Fetch.MaxConcurrentStreams)
	}
	if cfg.Fetch.RequestTimeout <= 0 {
		return fmt.Errorf("fetch.request_timeout must be > 0")
	}
	if cfg.Fetch.RateLimit < 0 {
		return fmt.Errorf("fetch.rate_limit must be >= 0, got %v", cfg.Fetch.RateLimit)
	}
	if cfg.Fetch.MaxBodySize <= 0 {
		return fmt.Errorf("fetch.max_body_size must be > 0")
	}
	if cfg.Fetch.MaxRedirects < 0 {
		return fmt.Errorf("fetch.max_redirects must be >= 0")
	}

	if cfg.FTP.DialTimeout <= 0 {
		return fmt.Errorf("ftp.dial_timeout must be > 0")
	}

	validAlgorithms := map[string]bool{
		"md5": true, "sha1": true, "sha256": true,
	}
	if !validAlgorithms[cfg.Hash.Algorithm] {
		return fmt.Errorf("hash.algorithm %q is not supported (valid: md5, sha1, sha256)", cfg.Hash.Algorithm)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateLocator checks that a locator string can be fetched.
func ValidateLocator(raw string) error {
	_, err := types.ParseLocator(raw)
	return err
}
