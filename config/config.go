package config

import (
	"fmt"

	"github.com/kbukum/rerun/logger"
)

// Config contains the resolved engine configuration.
type Config struct {
	// DefaultRetryLimit is the number of re-invocations after the first
	// failure that a new retry context is created with.
	DefaultRetryLimit int `yaml:"default_retry_limit" mapstructure:"default_retry_limit" validate:"gte=0,lte=1000"`
	// LogFailures toggles the per-attempt failure diagnostics.
	LogFailures bool `yaml:"log_failures" mapstructure:"log_failures"`
	// Logging configures the underlying logger.
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// Default returns the configuration the engine falls back to when no
// sources are present: limit 3, failure logging on.
func Default() *Config {
	cfg := &Config{
		DefaultRetryLimit: 3,
		LogFailures:       true,
	}
	cfg.Logging.ApplyDefaults()
	return cfg
}

// Validate validates the configuration, combining struct tag validation
// with the logger's own checks.
func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
