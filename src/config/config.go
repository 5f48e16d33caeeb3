// Package config loads, validates, and writes loq configuration files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sofmeright/loq/src/log"
	"github.com/sofmeright/loq/src/rules"
)

// DefaultFile is the file written by init.
const DefaultFile = "loq.toml"

// candidates are searched in order in each directory during discovery.
var candidates = []string{"loq.toml", ".loq.toml", "loq.yaml", ".loq.yaml", "loq.yml", ".loq.yml"}

// Config is the on-disk configuration. Rule order is significant.
type Config struct {
	RequiredVersion  string       `toml:"required_version,omitempty" yaml:"required_version,omitempty" validate:"omitempty,semver_constraint"`
	DefaultMaxLines  int          `toml:"default_max_lines" yaml:"default_max_lines"`
	RespectGitignore bool         `toml:"respect_gitignore" yaml:"respect_gitignore"`
	Exclude          []string     `toml:"exclude" yaml:"exclude" validate:"dive,required"`
	Rules            []RuleConfig `toml:"rules,omitempty" yaml:"rules,omitempty" validate:"dive"`

	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-" yaml:"-"`

	raw []byte
}

// RuleConfig is one [[rules]] entry.
type RuleConfig struct {
	Path     string `toml:"path" yaml:"path" validate:"required"`
	MaxLines int    `toml:"max_lines" yaml:"max_lines"`
}

// Defaults returns the built-in configuration used when no file exists.
func Defaults() *Config {
	return &Config{
		DefaultMaxLines:  rules.DefaultMaxLines,
		RespectGitignore: true,
		Exclude:          []string{},
	}
}

// Dir returns the directory rule paths are relative to: the config file's
// directory, or the working directory for defaults.
func (c *Config) Dir() (string, error) {
	if c.Path != "" {
		return filepath.Abs(filepath.Dir(c.Path))
	}
	return os.Getwd()
}

// Load reads and validates configuration. An explicit path must exist;
// with an empty path the working directory and its parents are searched,
// and defaults are returned when nothing is found.
func Load(path string) (*Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		path, err = Discover(wd)
		if err != nil {
			return nil, err
		}
		if path == "" {
			log.Debug("no configuration file found, using defaults")
			return Defaults(), nil
		}
	}

	log.Debugf("config file: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover returns the first config file found in dir or its ancestors, or
// "" when there is none.
func Discover(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range candidates {
			p := filepath.Join(dir, name)
			info, err := os.Stat(p)
			if err == nil && info.Mode().IsRegular() {
				return p, nil
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("checking %s: %w", p, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Parse decodes data according to the extension of path. Unknown keys and
// syntax errors are reported as a *rules.ConfigError with line numbers.
func Parse(path string, data []byte) (*Config, error) {
	cfg := Defaults()
	cfg.Path = path
	cfg.raw = data

	var err error
	if isYAML(path) {
		err = decodeYAML(data, cfg)
	} else {
		err = decodeTOML(data, cfg)
	}
	if err != nil {
		if cerr, ok := err.(*rules.ConfigError); ok {
			cerr.File = path
			return nil, cerr
		}
		return nil, &rules.ConfigError{File: path, Problems: []rules.Problem{{Field: "syntax", Message: err.Error()}}}
	}
	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeTOML(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err := dec.Decode(cfg)
	if err == nil {
		return nil
	}

	var strict *toml.StrictMissingError
	if errors.As(err, &strict) {
		cerr := &rules.ConfigError{}
		for _, e := range strict.Errors {
			row, _ := e.Position()
			key := strings.Join(e.Key(), ".")
			cerr.Problems = append(cerr.Problems, rules.Problem{
				Field:   key,
				Line:    row,
				Message: "unknown key",
			})
		}
		return cerr
	}

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, col := derr.Position()
		return &rules.ConfigError{Problems: []rules.Problem{{
			Field:   "syntax",
			Line:    row,
			Message: fmt.Sprintf("%s (column %d)", derr.Error(), col),
		}}}
	}
	return err
}

var yamlLineRe = regexp.MustCompile(`^line (\d+): (.*)$`)

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(cfg)
	if err == nil || errors.Is(err, io.EOF) {
		// io.EOF: empty or comment-only document.
		return nil
	}

	var terr *yaml.TypeError
	if errors.As(err, &terr) {
		cerr := &rules.ConfigError{}
		for _, msg := range terr.Errors {
			cerr.Problems = append(cerr.Problems, yamlProblem(msg))
		}
		return cerr
	}
	return &rules.ConfigError{Problems: []rules.Problem{yamlProblem(strings.TrimPrefix(err.Error(), "yaml: "))}}
}

func yamlProblem(msg string) rules.Problem {
	p := rules.Problem{Field: "syntax", Message: msg}
	if m := yamlLineRe.FindStringSubmatch(msg); m != nil {
		p.Line, _ = strconv.Atoi(m[1])
		p.Message = m[2]
	}
	return p
}

// RuleSet builds the immutable rule set for a scan. ig may be nil.
func (c *Config) RuleSet(ig rules.Ignorer) (*rules.RuleSet, error) {
	rs, err := rules.New(c.options(ig))
	if err != nil {
		var cerr *rules.ConfigError
		if errors.As(err, &cerr) {
			cerr.File = c.Path
			c.annotate(cerr)
		}
		return nil, err
	}
	return rs, nil
}

func (c *Config) options(ig rules.Ignorer) rules.Options {
	rs := make([]rules.Rule, len(c.Rules))
	for i, r := range c.Rules {
		rs[i] = rules.Rule{Pattern: r.Path, MaxLines: r.MaxLines}
	}
	return rules.Options{
		DefaultMaxLines:  c.DefaultMaxLines,
		Rules:            rs,
		Exclude:          c.Exclude,
		RespectGitignore: c.RespectGitignore,
		Ignorer:          ig,
	}
}
