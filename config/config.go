// Package config holds runtime configuration for the CLI surface, read
// from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config is the process-level configuration.
type Config struct {
	// WorkspaceDir is the root under which per-flow run workspaces live.
	WorkspaceDir string `env:"TASKFLOW_WORKSPACE_DIR" envDefault:".taskflow"`
	// LogLevel selects the zap log level: debug, info, warn or error.
	LogLevel string `env:"TASKFLOW_LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration without consulting the
// environment.
func Default() *Config {
	return &Config{WorkspaceDir: ".taskflow", LogLevel: "info"}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.WorkspaceDir == "" {
		return fmt.Errorf("workspace dir is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
}
