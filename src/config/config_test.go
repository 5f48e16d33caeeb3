package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/loq/src/rules"
	"github.com/sofmeright/loq/src/version"
)

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func configError(t *testing.T, err error) *rules.ConfigError {
	t.Helper()
	require.Error(t, err)
	var cerr *rules.ConfigError
	require.True(t, errors.As(err, &cerr), "want *rules.ConfigError, got %T: %v", err, err)
	return cerr
}

func TestLoad_TOMLPreservesRuleOrder(t *testing.T) {
	path := writeFile(t, t.TempDir(), "loq.toml", `
default_max_lines = 400
respect_gitignore = false
exclude = ["vendor/**"]

[[rules]]
path = "**/*.py"
max_lines = 100

[[rules]]
path = "special.py"
max_lines = 999
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.DefaultMaxLines)
	assert.False(t, cfg.RespectGitignore)
	assert.Equal(t, []string{"vendor/**"}, cfg.Exclude)
	if diff := cmp.Diff([]RuleConfig{
		{Path: "**/*.py", MaxLines: 100},
		{Path: "special.py", MaxLines: 999},
	}, cfg.Rules); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}

	rs, err := cfg.RuleSet(nil)
	require.NoError(t, err)
	limit, ok := rs.Resolve("special.py")
	require.True(t, ok)
	assert.Equal(t, 999, limit.MaxLines)
	_, ok = rs.Resolve("vendor/x.py")
	assert.False(t, ok)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "loq.toml", "exclude = [\"gen/**\"]\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultMaxLines, cfg.DefaultMaxLines)
	assert.True(t, cfg.RespectGitignore)
	assert.Empty(t, cfg.Rules)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".loq.yaml", `
default_max_lines: 300
rules:
  - path: "src/**/*.rs"
    max_lines: 200
  - path: src/main.rs
    max_lines: 800
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.DefaultMaxLines)
	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, "src/main.rs", cfg.Rules[1].Path)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_DiscoveryAndDefaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "loq.toml", "default_max_lines = 123\n")
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	found, err := Discover(sub)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "loq.toml"), found)

	chdir(t, sub)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 123, cfg.DefaultMaxLines)
	dir, err := cfg.Dir()
	require.NoError(t, err)
	assert.Equal(t, root, dir)

	empty := t.TempDir()
	chdir(t, empty)
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_AggregatesProblemsWithLines(t *testing.T) {
	path := writeFile(t, t.TempDir(), "loq.toml", `default_max_lines = 0
exclude = ["[oops"]

[[rules]]
path = "src/{a,b"
max_lines = 10

[[rules]]
path = "*.go"
max_lines = -5

[[rules]]
path = ""
max_lines = 10
`)

	cerr := configError(t, func() error { _, err := Load(path); return err }())
	assert.Equal(t, path, cerr.File)

	got := map[string]int{}
	for _, p := range cerr.Problems {
		got[p.Field] = p.Line
	}
	assert.Equal(t, map[string]int{
		"rules[2].path":      0,
		"default_max_lines":  1,
		"rules[0].path":      5,
		"rules[1].max_lines": 9,
		"exclude[0]":         2,
	}, got)
	assert.Contains(t, cerr.Error(), "5 problems")
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeFile(t, t.TempDir(), "loq.toml", "default_max_lines = 10\nmax_line = 5\n")

	cerr := configError(t, func() error { _, err := Load(path); return err }())
	require.Len(t, cerr.Problems, 1)
	assert.Equal(t, "max_line", cerr.Problems[0].Field)
	assert.Equal(t, 2, cerr.Problems[0].Line)
}

func TestLoad_UnknownKeyYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "loq.yml", "default_max_lines: 10\nmax_line: 5\n")

	cerr := configError(t, func() error { _, err := Load(path); return err }())
	require.Len(t, cerr.Problems, 1)
	assert.Equal(t, 2, cerr.Problems[0].Line)
}

func TestLoad_SyntaxError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "loq.toml", "default_max_lines = \n")

	cerr := configError(t, func() error { _, err := Load(path); return err }())
	require.Len(t, cerr.Problems, 1)
	assert.Equal(t, "syntax", cerr.Problems[0].Field)
	assert.Equal(t, 1, cerr.Problems[0].Line)
}

func TestLoad_RequiredVersion(t *testing.T) {
	old := version.Version
	version.Version = "0.2.0"
	t.Cleanup(func() { version.Version = old })

	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.toml", "required_version = \">= 0.1\"\n")
	_, err := Load(ok)
	assert.NoError(t, err)

	tooOld := writeFile(t, dir, "old.toml", "required_version = \">= 1.0\"\n")
	cerr := configError(t, func() error { _, err := Load(tooOld); return err }())
	assert.Equal(t, "required_version", cerr.Problems[0].Field)
	assert.Equal(t, 1, cerr.Problems[0].Line)

	bad := writeFile(t, dir, "bad.toml", "required_version = \"soon\"\n")
	cerr = configError(t, func() error { _, err := Load(bad); return err }())
	assert.Contains(t, cerr.Problems[0].Message, "not a valid version constraint")
}
