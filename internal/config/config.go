package config

import (
	"time"

	"github.com/dmora/agentenv"
)

// EnvPrefix is prepended to every variable the env layer reads.
const EnvPrefix = "AGENTENV_"

// Log formats accepted by Settings.LogFormat.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Settings is the merged operator configuration.
type Settings struct {
	// File is the YAML settings file. Env: AGENTENV_CONFIG.
	File string `env:"CONFIG" yaml:"-"`

	// Binary is the agent CLI path. Env: AGENTENV_BINARY.
	Binary string `env:"BINARY" yaml:"binary"`

	// Isolated selects isolated environment construction.
	// Env: AGENTENV_ISOLATED.
	Isolated bool `env:"ISOLATED" yaml:"isolated"`

	// BaseURL is the endpoint override handed to the subprocess.
	// Env: AGENTENV_BASE_URL.
	BaseURL string `env:"BASE_URL" yaml:"base_url"`

	// MaxOutputTokens is the advisory output limit; zero leaves it unset.
	// Env: AGENTENV_MAX_OUTPUT_TOKENS.
	MaxOutputTokens int `env:"MAX_OUTPUT_TOKENS" yaml:"max_output_tokens"`

	// Passthrough extends the isolated-mode allow-list.
	// Env: AGENTENV_PASSTHROUGH (comma separated).
	Passthrough []string `env:"PASSTHROUGH" envSeparator:"," yaml:"passthrough"`

	// Env holds per-instance environment overrides.
	// Env: AGENTENV_ENV ("K1=V1,K2=V2").
	Env map[string]string `env:"ENV" envKeyValSeparator:"=" yaml:"env"`

	// Dotenv lists dotenv files layered over the ambient snapshot, earlier
	// files winning. Env: AGENTENV_DOTENV (comma separated).
	Dotenv []string `env:"DOTENV" envSeparator:"," yaml:"dotenv"`

	// CloseTimeout is the per-instance stream close timeout; zero defers to
	// CLAUDE_CODE_STREAM_CLOSE_TIMEOUT. Env: AGENTENV_CLOSE_TIMEOUT.
	CloseTimeout time.Duration `env:"CLOSE_TIMEOUT" yaml:"close_timeout"`

	// GracePeriod is how long a stopped subprocess gets between SIGTERM and
	// SIGKILL. Env: AGENTENV_GRACE_PERIOD.
	GracePeriod time.Duration `env:"GRACE_PERIOD" yaml:"grace_period"`

	// LogLevel is a zerolog level name. Env: AGENTENV_LOG_LEVEL.
	LogLevel string `env:"LOG_LEVEL" yaml:"log_level"`

	// LogFormat is "json" or "console". Env: AGENTENV_LOG_FORMAT.
	LogFormat string `env:"LOG_FORMAT" yaml:"log_format"`
}

// Defaults returns the compiled-in settings layer.
func Defaults() *Settings {
	return &Settings{
		Binary:      "claude",
		GracePeriod: 5 * time.Second,
		LogLevel:    "warn",
		LogFormat:   LogFormatConsole,
	}
}

// Load merges defaults, the settings file, the AGENTENV_* variables of
// ambient, and flags (which may be nil) into validated Settings.
func Load(ambient agentenv.Snapshot, flags *Settings) (*Settings, error) {
	return newBuilder().
		withDefaults().
		withEnv(ambient).
		withFlags(flags).
		withFile().
		build()
}

// ConfigOptions converts s to options for agentenv.NewConfig. Zero-valued
// scalar settings produce no option.
func (s *Settings) ConfigOptions() []agentenv.ConfigOption {
	opts := []agentenv.ConfigOption{
		agentenv.WithBinary(s.Binary),
		agentenv.WithIsolated(s.Isolated),
		agentenv.WithPassthrough(s.Passthrough...),
		agentenv.WithEnv(s.Env),
	}
	if s.BaseURL != "" {
		opts = append(opts, agentenv.WithBaseURL(s.BaseURL))
	}
	if s.MaxOutputTokens > 0 {
		opts = append(opts, agentenv.WithMaxOutputTokens(s.MaxOutputTokens))
	}
	if s.CloseTimeout > 0 {
		opts = append(opts, agentenv.WithCloseTimeout(s.CloseTimeout))
	}
	return opts
}
