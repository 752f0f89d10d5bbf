package config

import (
	"fmt"

	"github.com/dmora/agentenv"
)

// validate checks the merged Settings before they are used.
func (s *Settings) validate() error {
	switch s.LogFormat {
	case LogFormatJSON, LogFormatConsole:
	default:
		return fmt.Errorf("%w: format %q", ErrInvalidLogSettings, s.LogFormat)
	}

	if s.CloseTimeout < 0 || s.GracePeriod < 0 {
		return ErrInvalidTimeouts
	}

	if s.MaxOutputTokens < 0 {
		return fmt.Errorf("%w: max_output_tokens must not be negative", ErrInvalidEnvSettings)
	}
	if err := agentenv.ValidateEnv(s.Env); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnvSettings, err)
	}
	return nil
}
