package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmora/agentenv"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentenv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func snapshot(vars map[string]string) agentenv.Snapshot {
	return agentenv.SnapshotFromMap(vars)
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(snapshot(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoad_EnvLayer(t *testing.T) {
	s, err := Load(snapshot(map[string]string{
		"AGENTENV_BINARY":            "/opt/claude",
		"AGENTENV_ISOLATED":          "true",
		"AGENTENV_PASSTHROUGH":       "SSH_AUTH_SOCK,GOPATH",
		"AGENTENV_ENV":               "A=1,B=2",
		"AGENTENV_CLOSE_TIMEOUT":     "30s",
		"AGENTENV_MAX_OUTPUT_TOKENS": "4096",
		"AGENTENV_LOG_FORMAT":        "json",
		"BINARY":                     "ignored-without-prefix",
	}), nil)
	require.NoError(t, err)

	assert.Equal(t, "/opt/claude", s.Binary)
	assert.True(t, s.Isolated)
	assert.Equal(t, []string{"SSH_AUTH_SOCK", "GOPATH"}, s.Passthrough)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, s.Env)
	assert.Equal(t, 30*time.Second, s.CloseTimeout)
	assert.Equal(t, 4096, s.MaxOutputTokens)
	assert.Equal(t, LogFormatJSON, s.LogFormat)
	assert.Equal(t, "warn", s.LogLevel, "default survives")
}

func TestLoad_EnvParseError(t *testing.T) {
	_, err := Load(snapshot(map[string]string{"AGENTENV_CLOSE_TIMEOUT": "soon"}), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error getting env settings")
}

func TestLoad_FileLayer(t *testing.T) {
	path := writeTempYAML(t, `
binary: /usr/local/bin/claude
isolated: true
base_url: https://proxy.example.com
passthrough: [SSH_AUTH_SOCK]
env:
  FOO: bar
close_timeout: 45s
log_level: debug
`)
	s, err := Load(snapshot(map[string]string{"AGENTENV_CONFIG": path}), nil)
	require.NoError(t, err)

	assert.Equal(t, path, s.File)
	assert.Equal(t, "/usr/local/bin/claude", s.Binary)
	assert.True(t, s.Isolated)
	assert.Equal(t, "https://proxy.example.com", s.BaseURL)
	assert.Equal(t, []string{"SSH_AUTH_SOCK"}, s.Passthrough)
	assert.Equal(t, map[string]string{"FOO": "bar"}, s.Env)
	assert.Equal(t, 45*time.Second, s.CloseTimeout)
	assert.Equal(t, "debug", s.LogLevel)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempYAML(t, "binary: from-file\nlog_level: debug\nlog_format: json\n")
	s, err := Load(
		snapshot(map[string]string{
			"AGENTENV_BINARY":    "from-env",
			"AGENTENV_LOG_LEVEL": "error",
		}),
		&Settings{File: path, Binary: "from-flags"},
	)
	require.NoError(t, err)

	assert.Equal(t, "from-flags", s.Binary, "flags beat env and file")
	assert.Equal(t, "error", s.LogLevel, "env beats file")
	assert.Equal(t, LogFormatJSON, s.LogFormat, "file beats defaults")
}

func TestLoad_FlagsFilePathWins(t *testing.T) {
	envPath := writeTempYAML(t, "binary: env-file\n")
	flagPath := writeTempYAML(t, "binary: flag-file\n")

	s, err := Load(snapshot(map[string]string{"AGENTENV_CONFIG": envPath}), &Settings{File: flagPath})
	require.NoError(t, err)
	assert.Equal(t, "flag-file", s.Binary)
	assert.Equal(t, flagPath, s.File)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeTempYAML(t, "")
	s, err := Load(snapshot(nil), &Settings{File: path})
	require.NoError(t, err)
	assert.Equal(t, "claude", s.Binary)
}

func TestLoad_FileErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Load(snapshot(nil), &Settings{File: filepath.Join(t.TempDir(), "nope.yaml")})
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("unknown_key", func(t *testing.T) {
		path := writeTempYAML(t, "binaryy: typo\n")
		_, err := Load(snapshot(nil), &Settings{File: path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error decoding settings file")
	})
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		flags *Settings
		want  error
	}{
		{"log_format", &Settings{LogFormat: "xml"}, ErrInvalidLogSettings},
		{"close_timeout", &Settings{CloseTimeout: -time.Second}, ErrInvalidTimeouts},
		{"grace_period", &Settings{GracePeriod: -time.Second}, ErrInvalidTimeouts},
		{"max_tokens", &Settings{MaxOutputTokens: -1}, ErrInvalidEnvSettings},
		{"env_key", &Settings{Env: map[string]string{"A=B": "x"}}, ErrInvalidEnvSettings},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(snapshot(nil), tt.flags)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_EnvMapsMerge(t *testing.T) {
	path := writeTempYAML(t, "env:\n  A: file\n  B: file\n")
	s, err := Load(
		snapshot(map[string]string{"AGENTENV_CONFIG": path}),
		&Settings{Env: map[string]string{"B": "flag"}},
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "file", "B": "flag"}, s.Env)
}

func TestSettings_ConfigOptions(t *testing.T) {
	s := &Settings{
		Binary:          "/bin/claude",
		Isolated:        true,
		BaseURL:         "https://proxy.example.com",
		MaxOutputTokens: 1000,
		Passthrough:     []string{"SSH_AUTH_SOCK"},
		Env:             map[string]string{"A": "1"},
		CloseTimeout:    3 * time.Second,
	}
	cfg := agentenv.NewConfig(s.ConfigOptions()...)

	assert.Equal(t, "/bin/claude", cfg.Binary())
	assert.True(t, cfg.Isolated())
	url, ok := cfg.BaseURL()
	assert.True(t, ok)
	assert.Equal(t, "https://proxy.example.com", url)
	n, ok := cfg.MaxOutputTokens()
	assert.True(t, ok)
	assert.Equal(t, 1000, n)
	assert.Equal(t, []string{"SSH_AUTH_SOCK"}, cfg.Passthrough())
	assert.Equal(t, map[string]string{"A": "1"}, cfg.Env())
	d, ok := cfg.CloseTimeout()
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)
}

func TestSettings_ConfigOptionsZeroValues(t *testing.T) {
	cfg := agentenv.NewConfig((&Settings{}).ConfigOptions()...)

	assert.Equal(t, "claude", cfg.Binary())
	_, ok := cfg.BaseURL()
	assert.False(t, ok)
	_, ok = cfg.MaxOutputTokens()
	assert.False(t, ok)
	_, ok = cfg.CloseTimeout()
	assert.False(t, ok)
}

func TestBuilder_PropagatesError(t *testing.T) {
	b := newBuilder()
	b.err = assert.AnError

	s, err := b.build()
	assert.Nil(t, s)
	assert.ErrorIs(t, err, assert.AnError)
}
