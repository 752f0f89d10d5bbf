package agentenv

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for subprocess and configuration operations.
var (
	// ErrUnavailable indicates the agent cannot start
	// (binary not found, not executable, etc.).
	ErrUnavailable = errors.New("agentenv: agent unavailable")

	// ErrTerminated indicates the session was terminated
	// (process killed, pipes closed).
	ErrTerminated = errors.New("agentenv: session terminated")

	// ErrInvalidConfigValue matches every *InvalidConfigValueError via errors.Is.
	ErrInvalidConfigValue = errors.New("agentenv: invalid config value")

	// ErrInvalidEnv indicates an environment override that cannot be
	// passed to a subprocess (empty key, '=' in key, null bytes).
	ErrInvalidEnv = errors.New("agentenv: invalid environment entry")
)

// InvalidConfigValueError reports a configuration value that was found
// but could not be converted to its typed form. Resolution itself never
// fails; this error surfaces at the point of conversion.
type InvalidConfigValueError struct {
	Key   string
	Value string
	Err   error
}

func (e *InvalidConfigValueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agentenv: %s: invalid value %q: %v", e.Key, e.Value, e.Err)
	}
	return fmt.Sprintf("agentenv: %s: invalid value %q", e.Key, e.Value)
}

func (e *InvalidConfigValueError) Unwrap() error { return e.Err }

// Is reports ErrInvalidConfigValue as a match so callers can test the kind
// without errors.As.
func (e *InvalidConfigValueError) Is(target error) bool {
	return target == ErrInvalidConfigValue
}

// ExitError represents a subprocess that exited with a non-zero status.
// Wraps the underlying error to preserve the error chain; consumers can
// errors.As to *exec.ExitError for OS-level detail such as signal info.
//
// Code semantics: positive = exit status, negative (-1) = signal-killed.
//
// Transports produce ExitError only for natural exits. User-initiated stops
// produce ErrTerminated instead.
type ExitError struct {
	Code int
	Err  error

	// Stderr holds the last lines the subprocess wrote to stderr,
	// sanitized and bounded. Empty when nothing was captured.
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "agentenv: exit status " + strconv.Itoa(e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode extracts the exit code from an error chain containing *ExitError.
// Returns (0, false) if the error does not contain an ExitError.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
