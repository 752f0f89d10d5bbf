package agentenv

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// defaultPassthrough lists the ambient variables copied into an isolated
// environment when present: executable search path, home and user
// identity, temp directories, terminal, timezone, locale, and the Windows
// essentials the runtime needs to start a process.
var defaultPassthrough = []string{
	"PATH",
	"HOME",
	"USER",
	"LOGNAME",
	"SHELL",
	"TMPDIR",
	"TMP",
	"TEMP",
	"TERM",
	"TZ",
	"LANG",
	"LANGUAGE",
	"SYSTEMROOT",
	"COMSPEC",
	"PATHEXT",
	"USERPROFILE",
	"APPDATA",
	"LOCALAPPDATA",
}

const localePrefix = "LC_"

// DefaultPassthrough returns the isolated-mode allow-list. Every variable
// with the LC_ prefix is passed through in addition to these keys. Extend
// it per Config with WithPassthrough.
func DefaultPassthrough() []string {
	return slices.Clone(defaultPassthrough)
}

// Environment is a subprocess environment produced by BuildEnv.
// It is never the process environment itself; it is a derived copy owned by
// the caller. Iteration order is sorted by key.
type Environment struct {
	vars map[string]string
}

// Lookup reports the value for key and whether it is present.
func (e *Environment) Lookup(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e.vars[key]
	return v, ok
}

// Get returns the value for key, or "" if absent.
func (e *Environment) Get(key string) string {
	v, _ := e.Lookup(key)
	return v
}

// Len returns the number of entries.
func (e *Environment) Len() int {
	if e == nil {
		return 0
	}
	return len(e.vars)
}

// Keys returns the keys in sorted order.
func (e *Environment) Keys() []string {
	if e == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(e.vars))
}

// Map returns a copy of the entries.
func (e *Environment) Map() map[string]string {
	if e == nil {
		return map[string]string{}
	}
	return maps.Clone(e.vars)
}

// Environ returns the entries as sorted "KEY=value" strings, ready for
// exec.Cmd.Env. The result is non-nil even when empty so that exec.Cmd
// does not fall back to inheriting the parent environment.
func (e *Environment) Environ() []string {
	keys := e.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+e.vars[k])
	}
	return out
}

// BuildEnv produces the environment for one subprocess launch from cfg and
// an ambient snapshot:
//
//  1. not isolated: start from a full copy of ambient;
//  2. isolated: start empty and copy only allow-listed keys present in
//     ambient (DefaultPassthrough, LC_*, cfg.Passthrough);
//  3. resolve credential and endpoint against ambient, with the cfg value
//     as the override; absent everywhere leaves the entry as it was after
//     step 1 or 2. The output limit is resolved with ResolveMaxOutputTokens
//     and written in canonical form; a malformed value is never written, so
//     an isolated environment omits it (ResolveMaxOutputTokens reports the
//     error). CLAUDE_CODE_ENTRYPOINT is set when still absent;
//  4. apply cfg.Env last, overwriting anything above, empty values included.
//
// BuildEnv writes nothing but its result. Two calls never share storage.
func BuildEnv(cfg *Config, ambient Snapshot) *Environment {
	vars := baseEnv(cfg, ambient)

	for key, override := range configOverrides(cfg) {
		if v, ok := Lookup(key, override, ambient); ok {
			vars[key] = v
		}
	}
	if n, ok, err := ResolveMaxOutputTokens(cfg, ambient); err == nil && ok {
		vars[EnvMaxOutputTokens] = strconv.Itoa(n)
	}
	if _, ok := vars[EnvEntrypoint]; !ok {
		vars[EnvEntrypoint] = Entrypoint
	}

	maps.Copy(vars, cfg.envOverrides())
	return &Environment{vars: vars}
}

// baseEnv implements steps 1 and 2 of BuildEnv.
func baseEnv(cfg *Config, ambient Snapshot) map[string]string {
	if !cfg.Isolated() {
		return ambient.Map()
	}
	vars := make(map[string]string)
	allowed := append(DefaultPassthrough(), cfg.Passthrough()...)
	for _, k := range allowed {
		if v, ok := ambient.Lookup(k); ok {
			vars[k] = v
		}
	}
	for k, v := range ambient.vars {
		if strings.HasPrefix(k, localePrefix) {
			vars[k] = v
		}
	}
	return vars
}

// configOverrides returns, for each key the builder resolves in step 3, a
// single-entry override map holding the cfg value, or nil when cfg leaves
// the key unset.
func configOverrides(cfg *Config) map[string]map[string]string {
	out := map[string]map[string]string{
		EnvAPIKey:  nil,
		EnvBaseURL: nil,
	}
	if v, ok := cfg.APIKey(); ok {
		out[EnvAPIKey] = map[string]string{EnvAPIKey: v}
	}
	if v, ok := cfg.BaseURL(); ok {
		out[EnvBaseURL] = map[string]string{EnvBaseURL: v}
	}
	return out
}
