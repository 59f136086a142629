package client

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment. URL is mandatory; NewProviders
// rejects a Config without it.
type Config struct {
	URL     string        `env:"INTERVUE_URL"`
	Timeout time.Duration `env:"INTERVUE_TIMEOUT" envDefault:"10s"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
