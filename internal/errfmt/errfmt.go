// Package errfmt bounds subprocess diagnostic text before it reaches
// errors and log entries.
package errfmt

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// MaxLen caps diagnostic text attached to errors.
const MaxLen = 4096

// Truncate caps s at limit bytes, backtracking to a valid UTF-8 boundary.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	end := limit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

// Sanitize replaces control characters other than tab with U+FFFD and
// caps the result at MaxLen bytes.
func Sanitize(s string) string {
	clean := strings.Map(func(r rune) rune {
		if r != '\t' && unicode.IsControl(r) {
			return utf8.RuneError
		}
		return r
	}, s)
	return Truncate(clean, MaxLen)
}

// Tail keeps the most recent lines written to it, up to a line count and
// a byte budget. Safe for concurrent use. The zero value keeps nothing.
type Tail struct {
	mu       sync.Mutex
	maxLines int
	maxBytes int
	lines    []string
	size     int
}

// NewTail returns a Tail holding at most maxLines lines and maxBytes bytes.
func NewTail(maxLines, maxBytes int) *Tail {
	return &Tail{maxLines: maxLines, maxBytes: maxBytes}
}

// Add records a line, evicting the oldest lines past either limit.
func (t *Tail) Add(line string) {
	if t == nil || t.maxLines <= 0 || t.maxBytes <= 0 {
		return
	}
	line = Truncate(Sanitize(line), t.maxBytes)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	t.size += len(line)
	for len(t.lines) > t.maxLines || (t.size > t.maxBytes && len(t.lines) > 1) {
		t.size -= len(t.lines[0])
		t.lines = t.lines[1:]
	}
}

// String joins the retained lines with newlines.
func (t *Tail) String() string {
	if t == nil {
		return ""
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
