package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const Production = "production"

type SourceOptions struct {
	URL      string        `env:"LEAVE_SOURCE_URL" envDefault:"https://67f551e6913986b16fa426fd.mockapi.io/api/v1/leave_requests"`
	Timeout  time.Duration `env:"LEAVE_SOURCE_TIMEOUT" envDefault:"10s"`
	CacheTTL time.Duration `env:"SOURCE_CACHE_TTL" envDefault:"30s"`
}

type RateLimitOptions struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

type SessionOptions struct {
	IdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
}

type ServerOptions struct {
	Port         string        `env:"PORT" envDefault:"3000"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

type Config struct {
	Server    ServerOptions
	Source    SourceOptions
	RateLimit RateLimitOptions
	Session   SessionOptions

	// PageSize is the dashboard page size.
	PageSize int `env:"PAGE_SIZE" envDefault:"5"`

	RedisAddr   string `env:"REDIS_ADDR"`
	KafkaBroker string `env:"KAFKA_BROKER"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnvironment string `env:"APP_ENV" envDefault:"development"`
}

// Load reads the optional .env files and then parses the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// missing .env files are fine, the environment may already be populated
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("LEAVE_SOURCE_URL is required")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit must be positive, got rps=%v burst=%d", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	if c.Session.IdleTimeout < 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must not be negative, got %s", c.Session.IdleTimeout)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnvironment == Production
}
