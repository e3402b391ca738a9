// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the server configuration. Every field can be overridden
// through an ILLUMITERM_ prefixed environment variable.
type Config struct {
	Host       string `envconfig:"HOST" default:"127.0.0.1"`
	Port       int    `envconfig:"PORT" default:"8080"`
	DBPath     string `envconfig:"DB_PATH" default:"data/sessions.db"`
	LogDir     string `envconfig:"LOG_DIR" default:"data/logs"`
	ReplaySize int    `envconfig:"REPLAY_SIZE" default:"262144"`
	Rows       uint16 `envconfig:"ROWS" default:"24"`
	Cols       uint16 `envconfig:"COLS" default:"80"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("illumiterm", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
