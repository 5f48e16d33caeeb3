package rules

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrBadPattern is returned by Compile for syntactically invalid globs.
var ErrBadPattern = errors.New("malformed glob pattern")

// Pattern is a validated glob matched against slash-separated relative paths.
//
//	*     any run of characters within one segment
//	**    zero or more whole segments ("**/*.go" matches "main.go")
//	?     one character within a segment
//	[a-z] character class
//	{a,b} alternation
//	\x    literal x
type Pattern struct {
	raw string
}

// Compile validates a glob. The empty pattern is valid and matches nothing.
func Compile(pattern string) (Pattern, error) {
	if pattern == "" {
		return Pattern{}, nil
	}
	if hasTrailingEscape(pattern) {
		return Pattern{}, fmt.Errorf("%w %q: trailing unescaped backslash", ErrBadPattern, pattern)
	}
	if !doublestar.ValidatePattern(pattern) {
		return Pattern{}, fmt.Errorf("%w %q: unbalanced brace or bracket", ErrBadPattern, pattern)
	}
	return Pattern{raw: pattern}, nil
}

// MustCompile is Compile for patterns known to be valid.
func MustCompile(pattern string) Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether the whole path matches. The path is normalized first.
func (p Pattern) Match(path string) bool {
	if p.raw == "" {
		return false
	}
	path = NormalizePath(path)
	if path == "" {
		return false
	}
	ok, err := doublestar.Match(p.raw, path)
	return err == nil && ok
}

func (p Pattern) String() string { return p.raw }

// Match compiles pattern and matches it against path. Malformed patterns
// never match.
func Match(pattern, path string) bool {
	p, err := Compile(pattern)
	if err != nil {
		return false
	}
	return p.Match(path)
}

// NormalizePath converts a path to forward slashes and strips leading "./".
func NormalizePath(p string) string {
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

// EscapePattern quotes glob metacharacters so the result matches path
// literally and nothing else.
func EscapePattern(path string) string {
	path = NormalizePath(path)
	var b strings.Builder
	b.Grow(len(path))
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// hasTrailingEscape reports whether the pattern ends in an odd run of
// backslashes.
func hasTrailingEscape(pattern string) bool {
	n := 0
	for i := len(pattern) - 1; i >= 0 && pattern[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}
