package config

import (
	"fmt"

	"github.com/rezkam/boardly/internal/env"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Database DatabaseConfig
}

// LoadTestConfig loads test configuration from environment. An empty DSN
// means postgres-backed tests should skip.
func LoadTestConfig() (*TestConfig, error) {
	cfg := &TestConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load test config: %w", err)
	}

	return cfg, nil
}
