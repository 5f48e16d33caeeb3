package rules

import (
	"fmt"
	"strings"
)

// Problem is one invalid entry found while building a RuleSet.
type Problem struct {
	Field   string // e.g. "rules[2].path"
	Value   string
	Line    int // 1-based config file line, 0 when unknown
	Message string
}

func (p Problem) String() string {
	var b strings.Builder
	if p.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", p.Line)
	}
	b.WriteString(p.Field)
	b.WriteString(": ")
	b.WriteString(p.Message)
	return b.String()
}

// ConfigError aggregates every configuration problem found in one pass.
type ConfigError struct {
	File     string
	Problems []Problem
}

func (e *ConfigError) Error() string {
	head := "invalid config"
	if e.File != "" {
		head += " " + e.File
	}
	if len(e.Problems) == 1 {
		return head + ": " + e.Problems[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d problems", head, len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  ")
		b.WriteString(p.String())
	}
	return b.String()
}

// Add appends a problem.
func (e *ConfigError) Add(field, value, format string, args ...any) {
	e.Problems = append(e.Problems, Problem{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	})
}

// Merge appends the problems of other.
func (e *ConfigError) Merge(other *ConfigError) {
	if other == nil {
		return
	}
	e.Problems = append(e.Problems, other.Problems...)
}

// ErrOrNil returns e when it holds problems, nil otherwise.
func (e *ConfigError) ErrOrNil() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}
