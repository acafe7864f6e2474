// Package config loads the runtime environment and the analysis manifest.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the runtime settings, populated from environment variables.
type Config struct {
	DataDir         string        `envconfig:"DATA_DIR" validate:"required"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	Workers         int           `envconfig:"WORKERS" default:"4" validate:"min=1,max=256"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// Kafka publishing is disabled when no brokers are configured.
	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS"`
	KafkaMetricsTopic string   `envconfig:"KAFKA_METRICS_TOPIC" default:"network-metrics" validate:"required"`

	// CompressionLevel selects the zstd preset for correlation blobs.
	CompressionLevel int `envconfig:"COMPRESSION_LEVEL" default:"2" validate:"min=1,max=4"`
}

// KafkaEnabled reports whether a metrics topic should be written.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// HTTPEnabled reports whether the health and metrics server should run.
func (c *Config) HTTPEnabled() bool { return c.HTTPAddr != "" }

// Load reads a .env file if present, then the process environment, and
// validates the result. Values already in the environment win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
