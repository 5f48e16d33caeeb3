package rules

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ignoreSet map[string]bool

func (s ignoreSet) Ignored(path string) bool { return s[path] }

func mustNew(t *testing.T, opts Options) *RuleSet {
	t.Helper()
	rs, err := New(opts)
	require.NoError(t, err)
	return rs
}

func TestResolve_LastMatchWins(t *testing.T) {
	rs := mustNew(t, Options{
		DefaultMaxLines: 500,
		Rules: []Rule{
			{Pattern: "*.py", MaxLines: 100},
			{Pattern: "special.py", MaxLines: 999},
		},
	})

	got, ok := rs.Resolve("special.py")
	require.True(t, ok)
	assert.Equal(t, ResolvedLimit{Path: "special.py", MaxLines: 999, Source: "special.py"}, got)

	got, ok = rs.Resolve("other.py")
	require.True(t, ok)
	assert.Equal(t, 100, got.MaxLines)
	assert.Equal(t, "*.py", got.Source)

	reversed := mustNew(t, Options{
		DefaultMaxLines: 500,
		Rules: []Rule{
			{Pattern: "special.py", MaxLines: 999},
			{Pattern: "*.py", MaxLines: 100},
		},
	})
	got, ok = reversed.Resolve("special.py")
	require.True(t, ok)
	assert.Equal(t, 100, got.MaxLines, "later generic rule overrides earlier specific one")
}

func TestResolve_DefaultFallback(t *testing.T) {
	rs := mustNew(t, Options{DefaultMaxLines: 500})

	for _, path := range []string{"a.go", "deep/nested/file.txt", "Makefile"} {
		got, ok := rs.Resolve(path)
		require.True(t, ok)
		assert.Equal(t, 500, got.MaxLines)
		assert.Equal(t, SourceDefault, got.Source)
		assert.True(t, got.IsDefault())
	}
}

func TestResolve_ExclusionDominates(t *testing.T) {
	for _, order := range [][]Rule{
		{{Pattern: "gen/**", MaxLines: 10}, {Pattern: "gen/big.go", MaxLines: 5000}},
		{{Pattern: "gen/big.go", MaxLines: 5000}, {Pattern: "gen/**", MaxLines: 10}},
	} {
		rs := mustNew(t, Options{
			DefaultMaxLines: 500,
			Rules:           order,
			Exclude:         []string{"gen/**"},
		})
		_, ok := rs.Resolve("gen/big.go")
		assert.False(t, ok)
		_, ok = rs.Resolve("src/main.go")
		assert.True(t, ok)
	}
}

func TestResolve_Gitignore(t *testing.T) {
	ig := ignoreSet{"build/out.js": true}

	rs := mustNew(t, Options{DefaultMaxLines: 500, RespectGitignore: true, Ignorer: ig})
	_, ok := rs.Resolve("build/out.js")
	assert.False(t, ok)

	rs = mustNew(t, Options{DefaultMaxLines: 500, RespectGitignore: false, Ignorer: ig})
	_, ok = rs.Resolve("build/out.js")
	assert.True(t, ok, "ignorer is consulted only when respect_gitignore is set")
}

func TestResolve_NormalizesPath(t *testing.T) {
	rs := mustNew(t, Options{
		DefaultMaxLines: 500,
		Rules:           []Rule{{Pattern: "src/*.go", MaxLines: 50}},
	})
	got, ok := rs.Resolve("./src/a.go")
	require.True(t, ok)
	assert.Equal(t, "src/a.go", got.Path)
	assert.Equal(t, 50, got.MaxLines)
}

func TestNew_AggregatesProblems(t *testing.T) {
	_, err := New(Options{
		DefaultMaxLines: 0,
		Rules: []Rule{
			{Pattern: "ok/**", MaxLines: 10},
			{Pattern: "src/{a,b", MaxLines: 10},
			{Pattern: "*.go", MaxLines: 0},
		},
		Exclude: []string{"[bad"},
	})
	require.Error(t, err)

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))

	fields := make([]string, 0, len(cerr.Problems))
	for _, p := range cerr.Problems {
		fields = append(fields, p.Field)
	}
	want := []string{"default_max_lines", "rules[1].path", "rules[2].max_lines", "exclude[0]"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("problem fields mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, err.Error(), "4 problems")
	assert.Contains(t, err.Error(), `"src/{a,b"`)
}

func TestWithRules(t *testing.T) {
	base := mustNew(t, Options{
		DefaultMaxLines: 500,
		Rules:           []Rule{{Pattern: "**/*.go", MaxLines: 300}},
		Exclude:         []string{"vendor/**"},
	})

	next, err := base.WithRules(Rule{Pattern: "big.go", MaxLines: 900})
	require.NoError(t, err)

	if diff := cmp.Diff([]Rule{
		{Pattern: "**/*.go", MaxLines: 300},
		{Pattern: "big.go", MaxLines: 900},
	}, next.Rules()); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, base.Rules(), 1, "original is unchanged")
	assert.Equal(t, []string{"vendor/**"}, next.Exclude())

	got, _ := next.Resolve("big.go")
	assert.Equal(t, 900, got.MaxLines)
}
