package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// TokenSecret signs and verifies bearer tokens. Required.
	TokenSecret string `env:"TOKEN_SECRET"`
	// SessionSecret authenticates the browser session cookie. Required.
	SessionSecret string `env:"SESSION_SECRET"`
	// SessionTTL bounds how long a browser session record lives in Redis.
	SessionTTL time.Duration `env:"SESSION_TTL" default:"168h"`

	// PolicyFile optionally overrides the compiled-in access policy.
	PolicyFile string `env:"POLICY_FILE"`

	// MaxConnections caps the websocket registry size.
	MaxConnections int `env:"MAX_CONNECTIONS" default:"10000"`
	// MaxClientsPerRoom caps a single room's membership. 0 disables the cap.
	MaxClientsPerRoom int `env:"MAX_CLIENTS_PER_ROOM" default:"0"`
	// SweepInterval is the liveness sweep period; a connection missing one
	// full cycle is evicted.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" default:"30s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":   cfg.DatabaseURL,
		"REDIS_URL":      cfg.RedisURL,
		"TOKEN_SECRET":   cfg.TokenSecret,
		"SESSION_SECRET": cfg.SessionSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.TokenSecret) < 32 {
		return fmt.Errorf("TOKEN_SECRET must be at least 32 characters")
	}
	if cfg.SweepInterval < time.Second {
		return fmt.Errorf("SWEEP_INTERVAL must be at least 1s")
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("MAX_CONNECTIONS must be positive")
	}
	if cfg.MaxClientsPerRoom < 0 {
		return fmt.Errorf("MAX_CLIENTS_PER_ROOM must not be negative")
	}

	return nil
}
