package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Market API
	APIURL      string        `env:"SF_API_URL" envDefault:"https://api.sfcompute.com"`
	APIToken    string        `env:"SF_API_TOKEN"`
	SessionPath string        `env:"SF_SESSION_PATH"`
	HTTPTimeout time.Duration `env:"SF_HTTP_TIMEOUT" envDefault:"10s"`

	// Fulfillment polling
	PollInterval time.Duration `env:"SF_POLL_INTERVAL" envDefault:"500ms"`
	PollBudget   int           `env:"SF_POLL_BUDGET" envDefault:"500"`

	// Split submissions in flight at once.
	SubmitConcurrency int `env:"SF_SUBMIT_CONCURRENCY" envDefault:"8"`

	// Upper bound on the total of one invocation, in cents. 0 disables it.
	MaxSpendCents int64 `env:"SF_MAX_SPEND_CENTS" envDefault:"0"`

	// Rendering
	DateLayout string `env:"SF_DATE_LAYOUT" envDefault:"%m/%d/%Y %I:%M %p"`
	TimeZone   string `env:"SF_TZ" envDefault:"Local"`

	// Telemetry
	LogLevel string `env:"SF_LOG_LEVEL" envDefault:"warn"`

	// Order alerts; empty disables them.
	DiscordWebhookURL string `env:"SF_DISCORD_WEBHOOK_URL"`
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.SessionPath == "" {
		cfg.SessionPath = DefaultSessionPath()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("SF_POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.PollBudget <= 0 {
		return fmt.Errorf("SF_POLL_BUDGET must be positive, got %d", c.PollBudget)
	}
	if c.SubmitConcurrency <= 0 {
		return fmt.Errorf("SF_SUBMIT_CONCURRENCY must be positive, got %d", c.SubmitConcurrency)
	}
	if c.MaxSpendCents < 0 {
		return fmt.Errorf("SF_MAX_SPEND_CENTS must not be negative, got %d", c.MaxSpendCents)
	}
	return nil
}

// Location resolves TimeZone for rendering instants.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}
