// Package config declares the environment variables read by the boardly
// binaries. Values are loaded with internal/env; zero values mean "use the
// component default".
package config

import (
	"fmt"
	"time"

	"github.com/rezkam/boardly/internal/env"
)

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	Storage         StorageConfig
	HTTP            HTTPConfig
	Capacity        CapacityConfig
	Retry           RetryConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"BOARDLY_SHUTDOWN_TIMEOUT"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `env:"BOARDLY_HTTP_HOST"`
	Port              string        `env:"BOARDLY_HTTP_PORT"`
	ReadTimeout       time.Duration `env:"BOARDLY_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"BOARDLY_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"BOARDLY_HTTP_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `env:"BOARDLY_HTTP_READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `env:"BOARDLY_HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"BOARDLY_HTTP_MAX_BODY_BYTES"`
}

// RetryConfig bounds how often the ordering engine retries a unit of work
// that lost a concurrent race.
type RetryConfig struct {
	MaxRetries int           `env:"BOARDLY_RETRY_MAX"`
	BaseDelay  time.Duration `env:"BOARDLY_RETRY_BASE_DELAY"`
}

// Validate rejects negative retry settings.
func (c *RetryConfig) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("BOARDLY_RETRY_MAX must not be negative, got %d", c.MaxRetries)
	}
	if c.BaseDelay < 0 {
		return fmt.Errorf("BOARDLY_RETRY_BASE_DELAY must not be negative, got %s", c.BaseDelay)
	}
	return nil
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}
