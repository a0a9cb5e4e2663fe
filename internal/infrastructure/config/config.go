package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full environment surface of the server. DB_URL and
// REDIS_URL are optional: without them the server runs on the in-memory
// store and the in-process backplane, which is enough for development.
type Config struct {
	Host      string `envconfig:"HOST" default:""`
	Port      int    `envconfig:"PORT" default:"8080"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	DatabaseURL string `envconfig:"DB_URL"`
	RedisURL    string `envconfig:"REDIS_URL"`

	AsynqConcurrency int    `envconfig:"ASYNQ_CONCURRENCY" default:"10"`
	AsynqQueues      string `envconfig:"ASYNQ_QUEUES" default:"default=1,chat=1"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
