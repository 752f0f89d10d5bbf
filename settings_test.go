package agentenv

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCloseTimeout(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"60000", 60 * time.Second, false},
		{"30000", 30 * time.Second, false},
		{"0", 0, false},
		{" 1500 ", 1500 * time.Millisecond, false},
		{"0.5", 500 * time.Microsecond, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-1", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"1e300", 0, true},
		{"10\x00", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCloseTimeout(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfigValue)
				var cfgErr *InvalidConfigValueError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, EnvStreamCloseTimeout, cfgErr.Key)
				assert.Equal(t, tt.raw, cfgErr.Value)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCloseTimeout(t *testing.T) {
	perCall := 5 * time.Second
	negative := -time.Second

	tests := []struct {
		name    string
		perCall *time.Duration
		cfg     *Config
		ambient map[string]string
		want    time.Duration
		wantErr bool
	}{
		{
			name: "default",
			want: DefaultStreamCloseTimeout,
		},
		{
			name:    "ambient",
			ambient: map[string]string{EnvStreamCloseTimeout: "45000"},
			want:    45 * time.Second,
		},
		{
			name:    "config_env_beats_ambient",
			cfg:     NewConfig(WithEnvVar(EnvStreamCloseTimeout, "30000")),
			ambient: map[string]string{EnvStreamCloseTimeout: "90000"},
			want:    30 * time.Second,
		},
		{
			name:    "config_field_beats_env",
			cfg:     NewConfig(WithCloseTimeout(2*time.Second), WithEnvVar(EnvStreamCloseTimeout, "30000")),
			ambient: map[string]string{EnvStreamCloseTimeout: "90000"},
			want:    2 * time.Second,
		},
		{
			name:    "per_call_beats_everything",
			perCall: &perCall,
			cfg:     NewConfig(WithCloseTimeout(2 * time.Second)),
			ambient: map[string]string{EnvStreamCloseTimeout: "90000"},
			want:    5 * time.Second,
		},
		{
			name:    "negative_per_call",
			perCall: &negative,
			wantErr: true,
		},
		{
			name:    "invalid_ambient",
			ambient: map[string]string{EnvStreamCloseTimeout: "soon"},
			wantErr: true,
		},
		{
			name:    "empty_override_is_invalid",
			cfg:     NewConfig(WithEnvVar(EnvStreamCloseTimeout, "")),
			ambient: map[string]string{EnvStreamCloseTimeout: "45000"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCloseTimeout(tt.perCall, tt.cfg, SnapshotFromMap(tt.ambient))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfigValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSkipVersionCheck(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		ambient map[string]string
		want    bool
	}{
		{"unset", nil, nil, false},
		{"empty_ambient", nil, map[string]string{EnvSkipVersionCheck: ""}, false},
		{"set_ambient", nil, map[string]string{EnvSkipVersionCheck: "1"}, true},
		{"any_value", nil, map[string]string{EnvSkipVersionCheck: "false"}, true},
		{"override_clears", NewConfig(WithEnvVar(EnvSkipVersionCheck, "")), map[string]string{EnvSkipVersionCheck: "1"}, false},
		{"override_sets", NewConfig(WithEnvVar(EnvSkipVersionCheck, "yes")), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SkipVersionCheck(tt.cfg, SnapshotFromMap(tt.ambient)))
		})
	}
}

func TestResolveMaxOutputTokens(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		ambient map[string]string
		want    int
		wantOK  bool
		wantErr bool
	}{
		{name: "unset"},
		{name: "config_field", cfg: NewConfig(WithMaxOutputTokens(1000)), ambient: map[string]string{EnvMaxOutputTokens: "5"}, want: 1000, wantOK: true},
		{name: "config_env", cfg: NewConfig(WithEnvVar(EnvMaxOutputTokens, "2000")), ambient: map[string]string{EnvMaxOutputTokens: "5"}, want: 2000, wantOK: true},
		{name: "ambient", ambient: map[string]string{EnvMaxOutputTokens: " 32000 "}, want: 32000, wantOK: true},
		{name: "zero", ambient: map[string]string{EnvMaxOutputTokens: "0"}, wantErr: true},
		{name: "garbage", ambient: map[string]string{EnvMaxOutputTokens: "lots"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok, err := ResolveMaxOutputTokens(tt.cfg, SnapshotFromMap(tt.ambient))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfigValue)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestValidateEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"nil", nil, false},
		{"valid", map[string]string{"FOO": "bar", "EMPTY": ""}, false},
		{"empty_key", map[string]string{"": "v"}, true},
		{"equals_in_key", map[string]string{"A=B": "v"}, true},
		{"null_in_key", map[string]string{"A\x00": "v"}, true},
		{"null_in_value", map[string]string{"A": "v\x00"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnv(tt.env)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEnv)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInvalidConfigValueError(t *testing.T) {
	inner := errors.New("boom")
	err := &InvalidConfigValueError{Key: "K", Value: "v", Err: inner}

	assert.True(t, errors.Is(err, ErrInvalidConfigValue))
	assert.True(t, errors.Is(err, inner))
	assert.Equal(t, `agentenv: K: invalid value "v": boom`, err.Error())
	assert.Equal(t, `agentenv: K: invalid value "v"`, (&InvalidConfigValueError{Key: "K", Value: "v"}).Error())
}
