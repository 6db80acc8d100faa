// Package config holds the environment and exit helpers shared by commands.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every env tag parsed by ParseEnv.
const EnvPrefix = "DIAGRAM_HARNESS_"

// ParseEnv loads configuration from DIAGRAM_HARNESS_* environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
