// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseType   string
	BaseURL        string
	EventTTL       time.Duration
	RequestTimeout time.Duration
	RedisURL       string
	LogLevel       string
	SecureCookies  bool
}

// envConfig holds the environment layer; flags override it.
type envConfig struct {
	Port           int           `envconfig:"PORT" default:"3318"`
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	DatabaseType   string        `envconfig:"DATABASE_TYPE" default:"sqlite"`
	BaseURL        string        `envconfig:"BASE_URL" default:"http://localhost:3318"`
	EventTTL       time.Duration `envconfig:"EVENT_TTL" default:"2160h"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	RedisURL       string        `envconfig:"REDIS_URL"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	SecureCookies  bool          `envconfig:"SECURE_COOKIES" default:"false"`
}

// ParseFlags loads the environment, applies flags on top and validates
func ParseFlags(args []string) (Config, error) {
	var env envConfig
	if err := envconfig.Process("", &env); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}

	var cfg Config

	fs := flag.NewFlagSet("quickly-meet", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", env.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", env.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", env.DatabaseType, "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.BaseURL, "base-url", env.BaseURL, "Public base URL used for share links")
	fs.StringVar(&cfg.RedisURL, "redis", env.RedisURL, "Redis URL for the vote change feed (optional)")

	// Behaviour
	fs.DurationVar(&cfg.EventTTL, "ttl", env.EventTTL, "Event time-to-live")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", env.RequestTimeout, "Per-request store timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", env.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.SecureCookies, "secure-cookies", env.SecureCookies, "Mark participant cookies Secure")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	cfg.DatabaseType = strings.ToLower(cfg.DatabaseType)
	if cfg.DatabaseType != DatabaseSQLite && cfg.DatabaseType != DatabasePostgres {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.EventTTL <= 0 {
		return Config{}, errors.New("event TTL must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, errors.New("request timeout must be positive")
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return cfg, nil
}
