package agentenv

import (
	"maps"
	"slices"
	"time"
)

const defaultBinary = "claude"

// Config holds per-client configuration: credentials, endpoint override,
// isolation mode, per-instance environment overrides, and scalar limits.
//
// Config is immutable after NewConfig returns. Every map and slice handed
// to a ConfigOption is copied, and accessors return copies, so two
// Configs never share backing storage and no caller can mutate one after
// construction. Building a Config never reads or writes the process
// environment; ambient lookups happen later, in BuildEnv.
//
// A nil *Config behaves like NewConfig().
type Config struct {
	apiKey          *string
	baseURL         *string
	isolated        bool
	env             map[string]string
	maxOutputTokens int
	passthrough     []string
	binary          string
	closeTimeout    *time.Duration
}

// ConfigOption configures a Config at construction time.
type ConfigOption func(*Config)

// NewConfig builds a Config from the given options.
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{binary: defaultBinary}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// WithAPIKey sets the credential handed to the subprocess. An empty key is
// still a set value and blanks any ambient credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.apiKey = &key
	}
}

// WithBaseURL sets the endpoint override handed to the subprocess.
func WithBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.baseURL = &url
	}
}

// WithIsolated selects isolated environment construction: only the
// passthrough allow-list, resolved credentials, and explicit overrides
// reach the subprocess.
func WithIsolated(isolated bool) ConfigOption {
	return func(c *Config) {
		c.isolated = isolated
	}
}

// WithEnv sets per-instance environment overrides. The map is copied;
// later changes to env are not observed. Repeated calls merge, later
// calls winning per key.
func WithEnv(env map[string]string) ConfigOption {
	return func(c *Config) {
		if len(env) == 0 {
			return
		}
		if c.env == nil {
			c.env = make(map[string]string, len(env))
		}
		maps.Copy(c.env, env)
	}
}

// WithEnvVar sets a single per-instance environment override.
func WithEnvVar(key, value string) ConfigOption {
	return WithEnv(map[string]string{key: value})
}

// WithMaxOutputTokens sets the advisory output token limit.
// Values <= 0 are ignored.
func WithMaxOutputTokens(n int) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.maxOutputTokens = n
		}
	}
}

// WithPassthrough adds keys to the isolated-mode allow-list on top of
// DefaultPassthrough(). Has no effect when isolation is off.
func WithPassthrough(keys ...string) ConfigOption {
	return func(c *Config) {
		for _, k := range keys {
			if k != "" && !slices.Contains(c.passthrough, k) {
				c.passthrough = append(c.passthrough, k)
			}
		}
	}
}

// WithBinary overrides the agent CLI binary. Empty values are ignored;
// the default is "claude".
func WithBinary(path string) ConfigOption {
	return func(c *Config) {
		if path != "" {
			c.binary = path
		}
	}
}

// WithCloseTimeout sets a per-instance stream close timeout. It ranks below
// a per-call timeout and above CLAUDE_CODE_STREAM_CLOSE_TIMEOUT.
// Negative values are ignored.
func WithCloseTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d >= 0 {
			c.closeTimeout = &d
		}
	}
}

// With returns a new Config with opts applied on top of a deep copy of c.
// The receiver is not modified.
func (c *Config) With(opts ...ConfigOption) *Config {
	out := c.Clone()
	for _, opt := range opts {
		if opt != nil {
			opt(out)
		}
	}
	return out
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return NewConfig()
	}
	out := *c
	if c.apiKey != nil {
		v := *c.apiKey
		out.apiKey = &v
	}
	if c.baseURL != nil {
		v := *c.baseURL
		out.baseURL = &v
	}
	if c.closeTimeout != nil {
		v := *c.closeTimeout
		out.closeTimeout = &v
	}
	if c.env != nil {
		out.env = maps.Clone(c.env)
	}
	if c.passthrough != nil {
		out.passthrough = slices.Clone(c.passthrough)
	}
	return &out
}

// APIKey returns the configured credential and whether one was set.
func (c *Config) APIKey() (string, bool) {
	if c == nil || c.apiKey == nil {
		return "", false
	}
	return *c.apiKey, true
}

// BaseURL returns the configured endpoint override and whether one was set.
func (c *Config) BaseURL() (string, bool) {
	if c == nil || c.baseURL == nil {
		return "", false
	}
	return *c.baseURL, true
}

// Isolated reports whether isolated environment construction is selected.
func (c *Config) Isolated() bool {
	return c != nil && c.isolated
}

// Env returns a copy of the per-instance environment overrides.
// The result is never nil.
func (c *Config) Env() map[string]string {
	if c == nil || c.env == nil {
		return map[string]string{}
	}
	return maps.Clone(c.env)
}

// MaxOutputTokens returns the advisory output token limit and whether one
// was set.
func (c *Config) MaxOutputTokens() (int, bool) {
	if c == nil || c.maxOutputTokens <= 0 {
		return 0, false
	}
	return c.maxOutputTokens, true
}

// Passthrough returns a copy of the extra isolated-mode allow-list keys.
func (c *Config) Passthrough() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.passthrough)
}

// Binary returns the agent CLI binary name or path.
func (c *Config) Binary() string {
	if c == nil || c.binary == "" {
		return defaultBinary
	}
	return c.binary
}

// CloseTimeout returns the per-instance close timeout and whether one was set.
func (c *Config) CloseTimeout() (time.Duration, bool) {
	if c == nil || c.closeTimeout == nil {
		return 0, false
	}
	return *c.closeTimeout, true
}

// envOverrides returns the override map without copying it.
// Callers inside the package only read from it.
func (c *Config) envOverrides() map[string]string {
	if c == nil {
		return nil
	}
	return c.env
}
