// Package rules holds the line-limit rule language: glob patterns, the
// ordered rule list, and last-match-wins resolution.
package rules

import "fmt"

// SourceDefault is the ResolvedLimit source when no rule matched.
const SourceDefault = "default"

// DefaultMaxLines is the built-in limit when no configuration sets one.
const DefaultMaxLines = 500

// Rule maps a glob to a maximum line count.
type Rule struct {
	Pattern  string
	MaxLines int
}

// ResolvedLimit is the effective limit for one path.
type ResolvedLimit struct {
	Path     string
	MaxLines int
	Source   string // SourceDefault or the winning rule's pattern
}

// IsDefault reports whether no rule matched.
func (r ResolvedLimit) IsDefault() bool { return r.Source == SourceDefault }

// Ignorer reports paths hidden by version-control ignore files.
type Ignorer interface {
	Ignored(path string) bool
}

// Options configures New.
type Options struct {
	DefaultMaxLines  int
	Rules            []Rule
	Exclude          []string
	RespectGitignore bool
	Ignorer          Ignorer
}

type compiledRule struct {
	Rule
	pattern Pattern
}

// RuleSet is an immutable, validated rule configuration.
type RuleSet struct {
	defaultMax       int
	rules            []compiledRule
	exclude          []Pattern
	respectGitignore bool
	ignorer          Ignorer
}

// New validates opts and builds a RuleSet. Every invalid entry is reported
// in a single *ConfigError.
func New(opts Options) (*RuleSet, error) {
	cerr := &ConfigError{}

	if opts.DefaultMaxLines < 1 {
		cerr.Add("default_max_lines", fmt.Sprint(opts.DefaultMaxLines),
			"must be at least 1, got %d", opts.DefaultMaxLines)
	}

	rs := &RuleSet{
		defaultMax:       opts.DefaultMaxLines,
		rules:            make([]compiledRule, 0, len(opts.Rules)),
		exclude:          make([]Pattern, 0, len(opts.Exclude)),
		respectGitignore: opts.RespectGitignore,
		ignorer:          opts.Ignorer,
	}

	for i, r := range opts.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		p, err := Compile(r.Pattern)
		if err != nil {
			cerr.Add(field+".path", r.Pattern, "%v", err)
		}
		if r.MaxLines < 1 {
			cerr.Add(field+".max_lines", fmt.Sprint(r.MaxLines),
				"must be at least 1, got %d (pattern %q)", r.MaxLines, r.Pattern)
		}
		rs.rules = append(rs.rules, compiledRule{Rule: r, pattern: p})
	}

	for i, ex := range opts.Exclude {
		p, err := Compile(ex)
		if err != nil {
			cerr.Add(fmt.Sprintf("exclude[%d]", i), ex, "%v", err)
			continue
		}
		rs.exclude = append(rs.exclude, p)
	}

	if err := cerr.ErrOrNil(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Resolve returns the effective limit for path. The boolean is false when
// the path is excluded and must not be measured or reported.
func (rs *RuleSet) Resolve(path string) (ResolvedLimit, bool) {
	path = NormalizePath(path)
	if rs.Excluded(path) {
		return ResolvedLimit{}, false
	}

	limit := ResolvedLimit{Path: path, MaxLines: rs.defaultMax, Source: SourceDefault}
	// Last match wins; order is the only precedence.
	for _, r := range rs.rules {
		if r.pattern.Match(path) {
			limit.MaxLines = r.MaxLines
			limit.Source = r.Pattern
		}
	}
	return limit, true
}

// Excluded reports whether path is dropped before resolution, either by
// the ignore collaborator or by an exclude pattern.
func (rs *RuleSet) Excluded(path string) bool {
	path = NormalizePath(path)
	if rs.respectGitignore && rs.ignorer != nil && rs.ignorer.Ignored(path) {
		return true
	}
	for _, p := range rs.exclude {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// WithRules returns a new RuleSet with extra appended after the existing
// rules. The patterns in extra must be valid.
func (rs *RuleSet) WithRules(extra ...Rule) (*RuleSet, error) {
	all := make([]Rule, 0, len(rs.rules)+len(extra))
	all = append(all, rs.Rules()...)
	all = append(all, extra...)
	return New(Options{
		DefaultMaxLines:  rs.defaultMax,
		Rules:            all,
		Exclude:          rs.Exclude(),
		RespectGitignore: rs.respectGitignore,
		Ignorer:          rs.ignorer,
	})
}

func (rs *RuleSet) DefaultMaxLines() int   { return rs.defaultMax }
func (rs *RuleSet) RespectGitignore() bool { return rs.respectGitignore }

// Rules returns a copy of the rules in declaration order.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.Rule
	}
	return out
}

// Exclude returns a copy of the exclude patterns.
func (rs *RuleSet) Exclude() []string {
	out := make([]string, len(rs.exclude))
	for i, p := range rs.exclude {
		out[i] = p.String()
	}
	return out
}
