package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/dmora/agentenv"
)

// parseEnv populates Settings from the AGENTENV_* variables of ambient.
func parseEnv(ambient agentenv.Snapshot) (*Settings, error) {
	s := &Settings{}
	err := env.ParseWithOptions(s, env.Options{
		Environment: ambient.Map(),
		Prefix:      EnvPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("error getting env settings: %w", err)
	}
	return s, nil
}
