package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix     = "API_"
	EnvConfigPath = "API_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if API_CONFIG is set
//  3. env (prefix API_)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, loadErr("file "+path, err)
		}
	}

	// Environment variables: API_ADDR, API_RATE_LIMIT_ENABLED, ...
	// Keys stay flat so underscores match the koanf tags on the struct.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, loadErr("env", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, loadErr("unmarshal", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.ReadTimeoutMS <= 0, c.WriteTimeoutMS <= 0, c.IdleTimeoutMS <= 0, c.ShutdownTimeoutMS <= 0:
		return invalid("timeouts must be positive")
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return invalid("unknown log_format %q", c.LogFormat)
	}

	if !c.RateLimitEnabled {
		return nil
	}
	switch {
	case c.RateLimitRequests <= 0 || c.RateLimitTokenRequests <= 0:
		return invalid("rate limit budgets must be positive")
	case c.RateLimitWindowMS <= 0:
		return invalid("rate_limit_window_ms must be positive")
	}
	switch c.RateLimitBackend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return invalid("redis_addr is required for the redis backend")
		}
	default:
		return invalid("unknown rate_limit_backend %q", c.RateLimitBackend)
	}
	return nil
}
