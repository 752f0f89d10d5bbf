package agentenv

// Lookup resolves key against overrides, then ambient, and reports whether
// any layer held it. Presence is decided by key membership, so an override
// set to "" wins over a non-empty ambient value.
//
// A nil overrides map behaves like an empty one, and a nil ambient source
// behaves like an empty source. Neither argument is written.
func Lookup(key string, overrides map[string]string, ambient Source) (string, bool) {
	if v, ok := overrides[key]; ok {
		return v, true
	}
	if ambient != nil {
		if v, ok := ambient.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// Resolve returns the value for key with precedence
// overrides[key] → ambient[key] → def. It never fails and never writes to
// its arguments or to process state, so it is safe for concurrent use.
func Resolve(key string, overrides map[string]string, ambient Source, def string) string {
	if v, ok := Lookup(key, overrides, ambient); ok {
		return v
	}
	return def
}
