// internal/config/config.go
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the server's environment-driven settings. Redis is optional:
// an empty REDIS_ADDR disables assignment history publishing entirely.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RedisAddr    string `env:"REDIS_ADDR"`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`
	HistoryQueue string `env:"HISTORY_QUEUE_NAME" envDefault:"teamdraw_assignments"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment config: %w", err)
	}
	return cfg, nil
}

// HistoryEnabled reports whether assignment history publishing is configured.
func (c Config) HistoryEnabled() bool {
	return c.RedisAddr != ""
}
