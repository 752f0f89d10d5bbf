package agentenv

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// Source is a read-only key/value lookup consulted as the ambient fallback
// during resolution. Implementations must not expose a way to write through.
type Source interface {
	// Lookup reports the value for key and whether the key is present.
	// A present key with an empty value returns ("", true).
	Lookup(key string) (string, bool)
}

// MapSource adapts a plain map to Source. The map is read, never written.
type MapSource map[string]string

// Lookup implements Source.
func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Snapshot is an immutable copy of an environment taken at one moment.
// Later changes to the process environment (or to the map or slice it was
// built from) are not observed. The zero value is an empty snapshot.
//
// Snapshot is safe to share read-only across goroutines.
type Snapshot struct {
	vars map[string]string
}

var _ Source = Snapshot{}

// CurrentSnapshot captures the host process environment.
func CurrentSnapshot() Snapshot {
	return SnapshotFromEnviron(os.Environ())
}

// SnapshotFromEnviron builds a snapshot from "KEY=value" entries in the
// format returned by os.Environ. Later duplicates win, matching exec.Cmd.Env.
// Entries without '=' and entries with an empty key are skipped.
func SnapshotFromEnviron(environ []string) Snapshot {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = v
	}
	return Snapshot{vars: vars}
}

// SnapshotFromMap builds a snapshot from a copy of m.
func SnapshotFromMap(m map[string]string) Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{vars: maps.Clone(m)}
}

// LoadDotenvSnapshot reads dotenv files into a snapshot without touching the
// process environment. When a key appears in several files the earlier file
// wins, the same precedence godotenv.Load uses.
func LoadDotenvSnapshot(files ...string) (Snapshot, error) {
	vars := make(map[string]string)
	for _, f := range files {
		read, err := godotenv.Read(f)
		if err != nil {
			return Snapshot{}, fmt.Errorf("agentenv: read dotenv %s: %w", f, err)
		}
		for k, v := range read {
			if _, seen := vars[k]; !seen {
				vars[k] = v
			}
		}
	}
	return Snapshot{vars: vars}, nil
}

// Lookup implements Source.
func (s Snapshot) Lookup(key string) (string, bool) {
	v, ok := s.vars[key]
	return v, ok
}

// Len returns the number of entries.
func (s Snapshot) Len() int { return len(s.vars) }

// Keys returns the keys in sorted order.
func (s Snapshot) Keys() []string {
	return slices.Sorted(maps.Keys(s.vars))
}

// Map returns a copy of the snapshot's contents.
func (s Snapshot) Map() map[string]string {
	if s.vars == nil {
		return map[string]string{}
	}
	return maps.Clone(s.vars)
}

// Overlay returns a new snapshot where entries of top replace entries of s.
// Neither input is modified.
func (s Snapshot) Overlay(top Snapshot) Snapshot {
	vars := make(map[string]string, len(s.vars)+len(top.vars))
	maps.Copy(vars, s.vars)
	maps.Copy(vars, top.vars)
	return Snapshot{vars: vars}
}
