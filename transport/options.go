package transport

import (
	"slices"
	"time"

	"github.com/rs/zerolog"
)

// Default transport configuration values.
const (
	defaultOutputBuffer  = 100
	defaultScannerBuffer = 1 << 20 // 1 MB
	defaultGracePeriod   = 5 * time.Second

	stderrTailLines = 20
)

// Options holds resolved configuration for Start.
type Options struct {
	// OutputBuffer is the channel buffer size for stdout lines.
	OutputBuffer int

	// ScannerBuffer is the maximum line size in bytes for the stdout scanner.
	ScannerBuffer int

	// GracePeriod is the duration to wait after SIGTERM before sending SIGKILL.
	GracePeriod time.Duration

	// Args are passed to the binary.
	Args []string

	// Dir is the working directory. Empty means the caller's directory.
	Dir string

	// Logger receives lifecycle events and stderr lines.
	Logger zerolog.Logger

	// CloseTimeout is the per-call stream close timeout. Nil defers to the
	// Config and the environment.
	CloseTimeout *time.Duration
}

// Option configures Start.
type Option func(*Options)

// WithOutputBuffer sets the channel buffer size for stdout lines.
// Values <= 0 are ignored.
func WithOutputBuffer(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.OutputBuffer = size
		}
	}
}

// WithScannerBuffer sets the maximum line size in bytes for the stdout scanner.
// Values <= 0 are ignored.
func WithScannerBuffer(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ScannerBuffer = size
		}
	}
}

// WithGracePeriod sets the duration to wait after SIGTERM before sending SIGKILL.
// Values <= 0 are ignored.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.GracePeriod = d
		}
	}
}

// WithArgs sets the arguments passed to the binary. The slice is copied.
func WithArgs(args ...string) Option {
	return func(o *Options) {
		o.Args = slices.Clone(args)
	}
}

// WithDir sets the subprocess working directory.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithCloseTimeout sets the per-call stream close timeout used by
// Process.Close. Negative values are ignored.
func WithCloseTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.CloseTimeout = &d
		}
	}
}

func resolveOptions(opts ...Option) Options {
	o := Options{
		OutputBuffer:  defaultOutputBuffer,
		ScannerBuffer: defaultScannerBuffer,
		GracePeriod:   defaultGracePeriod,
		Logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
