package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("FETCHKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("fetchkit")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".fetchkit"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env vars bind to every key.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetch.max_concurrent_streams", cfg.Fetch.MaxConcurrentStreams)
	v.SetDefault("fetch.request_timeout", cfg.Fetch.RequestTimeout)
	v.SetDefault("fetch.rate_limit", cfg.Fetch.RateLimit)
	v.SetDefault("fetch.user_agent", cfg.Fetch.UserAgent)
	v.SetDefault("fetch.follow_redirects", cfg.Fetch.FollowRedirects)
	v.SetDefault("fetch.max_redirects", cfg.Fetch.MaxRedirects)
	v.SetDefault("fetch.max_body_size", cfg.Fetch.MaxBodySize)
	v.SetDefault("fetch.tls_insecure", cfg.Fetch.TLSInsecure)
	v.SetDefault("fetch.idle_conn_timeout", cfg.Fetch.IdleConnTimeout)
	v.SetDefault("fetch.max_idle_conns", cfg.Fetch.MaxIdleConns)

	v.SetDefault("ftp.username", cfg.FTP.Username)
	v.SetDefault("ftp.password", cfg.FTP.Password)
	v.SetDefault("ftp.dial_timeout", cfg.FTP.DialTimeout)
	v.SetDefault("ftp.tls_insecure", cfg.FTP.TLSInsecure)

	v.SetDefault("hash.algorithm", cfg.Hash.Algorithm)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
