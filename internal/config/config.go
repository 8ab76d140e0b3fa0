package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for fetchkit.
type Config struct {
	Fetch   FetchConfig   `mapstructure:"fetch"   yaml:"fetch"`
	FTP     FTPConfig     `mapstructure:"ftp"     yaml:"ftp"`
	Hash    HashConfig    `mapstructure:"hash"    yaml:"hash"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// FetchConfig controls the HTTP transport and the bulk fetchers.
type FetchConfig struct {
	MaxConcurrentStreams int           `mapstructure:"max_concurrent_streams" yaml:"max_concurrent_streams"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"        yaml:"request_timeout"`
	RateLimit            float64       `mapstructure:"rate_limit"             yaml:"rate_limit"` // requests/sec, 0 = unlimited
	UserAgent            string        `mapstructure:"user_agent"             yaml:"user_agent"`
	FollowRedirects      bool          `mapstructure:"follow_redirects"       yaml:"follow_redirects"`
	MaxRedirects         int           `mapstructure:"max_redirects"          yaml:"max_redirects"`
	MaxBodySize          int64         `mapstructure:"max_body_size"          yaml:"max_body_size"`
	TLSInsecure          bool          `mapstructure:"tls_insecure"           yaml:"tls_insecure"`
	IdleConnTimeout      time.Duration `mapstructure:"idle_conn_timeout"      yaml:"idle_conn_timeout"`
	MaxIdleConns         int           `mapstructure:"max_idle_conns"         yaml:"max_idle_conns"`
}

// FTPConfig controls the FTP transport.
type FTPConfig struct {
	Username    string        `mapstructure:"username"     yaml:"username"`
	Password    string        `mapstructure:"password"     yaml:"password"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	TLSInsecure bool          `mapstructure:"tls_insecure" yaml:"tls_insecure"`
}

// HashConfig controls the resource hasher.
type HashConfig struct {
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"` // md5, sha1, sha256
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetch: FetchConfig{
			MaxConcurrentStreams: 4,
			RequestTimeout:       30 * time.Second,
			UserAgent:            "fetchkit/" + Version,
			FollowRedirects:      true,
			MaxRedirects:         10,
			MaxBodySize:          64 * 1024 * 1024, // 64MB
			IdleConnTimeout:      90 * time.Second,
			MaxIdleConns:         100,
		},
		FTP: FTPConfig{
			Username:    "anonymous",
			Password:    "anonymous",
			DialTimeout: 10 * time.Second,
		},
		Hash: HashConfig{
			Algorithm: "md5",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
