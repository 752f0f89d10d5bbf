// Package logger wraps zerolog.Logger with the constructors and context
// helpers used by the agentenv command line tool.
//
// Logger embeds zerolog.Logger, so the full zerolog API (Debug, Info,
// Warn, Error) is available on *Logger. Library packages accept a plain
// zerolog.Logger; the CLI builds one here and passes l.Logger down.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// Options configures New.
type Options struct {
	// Role is attached to every entry as the "role" field.
	Role string
	// Level is a zerolog level name. Empty or unknown names mean "info".
	Level string
	// Console selects human-readable output instead of JSON.
	Console bool
	// Output defaults to os.Stderr. Stdout is reserved for command output.
	Output io.Writer
}

// New constructs a *Logger from opts.
func New(opts Options) *Logger {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}

	ctx := zerolog.New(w).Level(ParseLevel(opts.Level)).With().Timestamp()
	if opts.Role != "" {
		ctx = ctx.Str("role", opts.Role)
	}
	return &Logger{ctx.Logger()}
}

// ParseLevel converts a level name to a zerolog.Level, falling back to
// InfoLevel.
func ParseLevel(name string) zerolog.Level {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop returns a *Logger that discards all output.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// Named returns a child *Logger that inherits all fields of the receiver
// and tags entries with a "component" field.
func (l *Logger) Named(component string) *Logger {
	return &Logger{l.With().Str("component", component).Logger()}
}

// WithContext attaches l to ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.Logger.WithContext(ctx)
}

// FromContext returns the logger attached to ctx, or Nop when none is.
func FromContext(ctx context.Context) *Logger {
	l := log.Ctx(ctx)
	if l == nil || l.GetLevel() == zerolog.Disabled {
		return Nop()
	}
	return &Logger{*l}
}
