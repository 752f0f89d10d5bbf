package config

import "errors"

// Validation errors returned by Load when the merged settings are unusable.
var (
	// ErrInvalidLogSettings indicates an unknown log format.
	ErrInvalidLogSettings = errors.New("invalid log settings")
	// ErrInvalidTimeouts indicates a negative close timeout or grace period.
	ErrInvalidTimeouts = errors.New("invalid timeout settings")
	// ErrInvalidEnvSettings indicates env overrides that cannot reach a
	// subprocess, or a negative output limit.
	ErrInvalidEnvSettings = errors.New("invalid environment settings")
)
