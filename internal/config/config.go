// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted in CALLCACHE_BACKEND.
const (
	BackendSocket = "socket"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Backend     string        `env:"CALLCACHE_BACKEND" envDefault:"socket"`
	SocketPath  string        `env:"CALLCACHE_SOCK"`
	DBPath      string        `env:"CALLCACHE_DB"`
	RedisAddr   string        `env:"CALLCACHE_REDIS_ADDR" envDefault:"localhost:6379"`
	PageTTL     time.Duration `env:"CALLCACHE_PAGE_TTL" envDefault:"10s"`
	SearchTTL   time.Duration `env:"CALLCACHE_SEARCH_TTL" envDefault:"5m"`
	MetricsAddr string        `env:"CALLCACHE_METRICS_ADDR"`
}

// Load parses the environment and fills in path defaults under
// ~/.cache/callcache.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = filepath.Join(cacheDir(), "cache.sock")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cacheDir(), "cache.bbolt")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field combinations env tags cannot express.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSocket, BackendBolt, BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	for name, d := range map[string]time.Duration{
		"CALLCACHE_PAGE_TTL":   c.PageTTL,
		"CALLCACHE_SEARCH_TTL": c.SearchTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", name, d)
		}
	}
	return nil
}

func cacheDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "callcache")
}
