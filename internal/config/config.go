// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers defaults, an optional YAML file and API_* environment variables.
//   - Errors returned from this package wrap ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"strings"
	"time"
)

// Rate limiter backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// HTTP server timeouts in milliseconds.
	ReadTimeoutMS     int `koanf:"read_timeout_ms"`
	WriteTimeoutMS    int `koanf:"write_timeout_ms"`
	IdleTimeoutMS     int `koanf:"idle_timeout_ms"`
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	// MetricsEnabled toggles Prometheus observations.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// RateLimitEnabled turns on the per-client fixed window limiter.
	RateLimitEnabled bool `koanf:"rate_limit_enabled"`

	// RateLimitRequests is the per-window budget for anonymous clients (keyed by IP).
	RateLimitRequests int `koanf:"rate_limit_requests"`

	// RateLimitTokenRequests is the per-window budget for clients sending a
	// known X-API-Key.
	RateLimitTokenRequests int `koanf:"rate_limit_token_requests"`

	// RateLimitAPIKeys is a comma-separated list of known API keys. Unknown
	// keys are limited by IP.
	RateLimitAPIKeys string `koanf:"rate_limit_api_keys"`

	// RateLimitWindowMS is the window length in milliseconds.
	RateLimitWindowMS int `koanf:"rate_limit_window_ms"`

	// RateLimitBackend is "memory" or "redis".
	RateLimitBackend string `koanf:"rate_limit_backend"`

	// Redis connection used when RateLimitBackend is "redis".
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":8080",
		ReadTimeoutMS:          10_000,
		WriteTimeoutMS:         10_000,
		IdleTimeoutMS:          60_000,
		ShutdownTimeoutMS:      30_000,
		MetricsEnabled:         true,
		RateLimitEnabled:       false,
		RateLimitRequests:      100,
		RateLimitTokenRequests: 1000,
		RateLimitWindowMS:      1000,
		RateLimitBackend:       BackendMemory,
		RedisAddr:              "localhost:6379",
	}
}

// ReadTimeout returns ReadTimeoutMS as a duration.
func (c *Config) ReadTimeout() time.Duration { return ms(c.ReadTimeoutMS) }

// WriteTimeout returns WriteTimeoutMS as a duration.
func (c *Config) WriteTimeout() time.Duration { return ms(c.WriteTimeoutMS) }

// IdleTimeout returns IdleTimeoutMS as a duration.
func (c *Config) IdleTimeout() time.Duration { return ms(c.IdleTimeoutMS) }

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration { return ms(c.ShutdownTimeoutMS) }

// RateLimitWindow returns RateLimitWindowMS as a duration.
func (c *Config) RateLimitWindow() time.Duration { return ms(c.RateLimitWindowMS) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// APIKeys splits RateLimitAPIKeys, dropping blanks.
func (c *Config) APIKeys() []string {
	var keys []string
	for _, k := range strings.Split(c.RateLimitAPIKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
