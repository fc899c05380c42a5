// loader.go implements the configuration loading lifecycle:
//
//  1. Enforce UTC as the process-wide time zone to prevent drift bugs in
//     the daily aggregation boundary.
//  2. Load a .env file via godotenv (non-fatal if absent).
//  3. Populate the Config struct from envconfig tags.
//  4. Validate the struct with go-playground/validator.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// LoadConfig loads and validates the application configuration.
func LoadConfig() (*Config, error) {
	time.Local = time.UTC
	if err := os.Setenv("TZ", "UTC"); err != nil {
		return nil, fmt.Errorf("setting TZ: %w", err)
	}

	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// FinalDLQName derives the terminal dead-letter queue name from the main
// queue name.
func (b BrokerConfig) FinalDLQName() string {
	return b.QueueName + ".dlq.final"
}
