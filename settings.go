package agentenv

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Recognized environment variable names. The names are shared with the
// agent CLI and must not change.
const (
	// EnvAPIKey carries the credential.
	EnvAPIKey = "ANTHROPIC_API_KEY"

	// EnvBaseURL carries the endpoint override.
	EnvBaseURL = "ANTHROPIC_BASE_URL"

	// EnvStreamCloseTimeout is the stream close timeout in milliseconds.
	EnvStreamCloseTimeout = "CLAUDE_CODE_STREAM_CLOSE_TIMEOUT"

	// EnvSkipVersionCheck disables the CLI version check when non-empty.
	EnvSkipVersionCheck = "CLAUDE_AGENT_SDK_SKIP_VERSION_CHECK"

	// EnvMaxOutputTokens carries the advisory output token limit.
	EnvMaxOutputTokens = "CLAUDE_CODE_MAX_OUTPUT_TOKENS"

	// EnvEntrypoint identifies the client to the CLI.
	EnvEntrypoint = "CLAUDE_CODE_ENTRYPOINT"
)

// Compiled-in defaults.
const (
	// DefaultStreamCloseTimeout applies when no layer sets a close timeout.
	DefaultStreamCloseTimeout = 60 * time.Second

	// Entrypoint is the value exported as CLAUDE_CODE_ENTRYPOINT when the
	// environment does not already carry one.
	Entrypoint = "sdk-go"

	defaultStreamCloseTimeoutMS = "60000"
)

// ParseCloseTimeout converts a millisecond value to a duration.
// Fractional milliseconds are accepted. Empty, non-numeric, negative,
// NaN, and infinite values are rejected with *InvalidConfigValueError.
func ParseCloseTimeout(raw string) (time.Duration, error) {
	v := strings.TrimSpace(raw)
	if strings.Contains(v, "\x00") {
		return 0, &InvalidConfigValueError{Key: EnvStreamCloseTimeout, Value: raw, Err: errors.New("value contains null bytes")}
	}
	ms, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &InvalidConfigValueError{Key: EnvStreamCloseTimeout, Value: raw, Err: errors.New("not a number of milliseconds")}
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, &InvalidConfigValueError{Key: EnvStreamCloseTimeout, Value: raw, Err: errors.New("must be finite")}
	}
	if ms < 0 {
		return 0, &InvalidConfigValueError{Key: EnvStreamCloseTimeout, Value: raw, Err: errors.New("must not be negative")}
	}
	d := ms * float64(time.Millisecond)
	if d >= math.MaxInt64 {
		return 0, &InvalidConfigValueError{Key: EnvStreamCloseTimeout, Value: raw, Err: errors.New("out of range")}
	}
	return time.Duration(d), nil
}

// ResolveCloseTimeout resolves the stream close timeout with precedence
// perCall → cfg.CloseTimeout → cfg.Env / ambient CLAUDE_CODE_STREAM_CLOSE_TIMEOUT
// → DefaultStreamCloseTimeout. A nil perCall means "not supplied".
func ResolveCloseTimeout(perCall *time.Duration, cfg *Config, ambient Source) (time.Duration, error) {
	if perCall != nil {
		if *perCall < 0 {
			return 0, &InvalidConfigValueError{Key: EnvStreamCloseTimeout, Value: perCall.String(), Err: errors.New("must not be negative")}
		}
		return *perCall, nil
	}
	if d, ok := cfg.CloseTimeout(); ok {
		return d, nil
	}
	raw := Resolve(EnvStreamCloseTimeout, cfg.envOverrides(), ambient, defaultStreamCloseTimeoutMS)
	return ParseCloseTimeout(raw)
}

// SkipVersionCheck reports whether the CLI version check is disabled.
// An empty value (the default) keeps the check enabled; any non-empty value
// disables it.
func SkipVersionCheck(cfg *Config, ambient Source) bool {
	return Resolve(EnvSkipVersionCheck, cfg.envOverrides(), ambient, "") != ""
}

// ResolveMaxOutputTokens resolves the advisory output limit with precedence
// cfg.MaxOutputTokens → cfg.Env / ambient CLAUDE_CODE_MAX_OUTPUT_TOKENS.
// Returns (0, false, nil) when no layer sets it.
func ResolveMaxOutputTokens(cfg *Config, ambient Source) (int, bool, error) {
	if n, ok := cfg.MaxOutputTokens(); ok {
		return n, true, nil
	}
	raw, ok := Lookup(EnvMaxOutputTokens, cfg.envOverrides(), ambient)
	if !ok {
		return 0, false, nil
	}
	n, err := parsePositiveInt(EnvMaxOutputTokens, raw)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// parsePositiveInt converts raw to a positive integer, reporting failures
// as *InvalidConfigValueError for key.
func parsePositiveInt(key, raw string) (int, error) {
	if strings.Contains(raw, "\x00") {
		return 0, &InvalidConfigValueError{Key: key, Value: raw, Err: errors.New("value contains null bytes")}
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &InvalidConfigValueError{Key: key, Value: raw, Err: errors.New("not a valid integer")}
	}
	if n <= 0 {
		return 0, &InvalidConfigValueError{Key: key, Value: raw, Err: errors.New("must be a positive integer")}
	}
	return n, nil
}

// ValidateEnv checks that every entry can be passed to a subprocess:
// keys must be non-empty and free of '=' and null bytes; values must be
// free of null bytes.
func ValidateEnv(env map[string]string) error {
	for k, v := range env {
		if k == "" {
			return fmt.Errorf("%w: empty key", ErrInvalidEnv)
		}
		if strings.ContainsAny(k, "=\x00") {
			return fmt.Errorf("%w: key %q contains '=' or null byte", ErrInvalidEnv, k)
		}
		if strings.Contains(v, "\x00") {
			return fmt.Errorf("%w: value for %q contains null byte", ErrInvalidEnv, k)
		}
	}
	return nil
}
