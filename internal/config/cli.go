package config

import (
	"fmt"

	"github.com/rezkam/boardly/internal/env"
)

// CLIConfig holds configuration for boardctl.
type CLIConfig struct {
	Storage  StorageConfig
	Capacity CapacityConfig
}

// LoadCLIConfig loads and validates boardctl configuration from environment.
func LoadCLIConfig() (*CLIConfig, error) {
	cfg := &CLIConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load cli config: %w", err)
	}

	return cfg, nil
}
