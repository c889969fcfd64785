package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        int    `env:"PORT" envDefault:"3000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Requests allowed per API key within each rate-limit window.
	RateLimitRequests int `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindowS  int `env:"RATE_LIMIT_WINDOW_S" envDefault:"60"`

	WebhookPollIntervalMS int `env:"WEBHOOK_POLL_INTERVAL_MS" envDefault:"1000"`
	WebhookBatchSize      int `env:"WEBHOOK_BATCH_SIZE" envDefault:"10"`

	// When true, exchange rates fluctuate pseudo-randomly around their base
	// values within each currency's variance band.
	RateFluctuation bool `env:"RATE_FLUCTUATION" envDefault:"false"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
