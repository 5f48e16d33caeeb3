package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sofmeright/loq/src/log"
	"github.com/sofmeright/loq/src/rules"
)

// ErrExists is returned by WriteDefault when the target file is present.
var ErrExists = errors.New("config file already exists")

const tomlHeader = `# loq configuration.
# Rules are checked in order and the last matching rule wins,
# so put specific overrides below general ones.
`

// inlineRules detects "rules = [...]", which cannot be extended by
// appending [[rules]] tables.
var inlineRules = regexp.MustCompile(`(?m)^\s*rules\s*=`)

// Encode renders cfg in the format implied by path's extension.
func Encode(path string, cfg *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(cfg)
	}
	body, err := toml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return append([]byte(tomlHeader+"\n"), body...), nil
}

// WriteDefault writes the built-in defaults to path, refusing to overwrite.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	data, err := Encode(path, Defaults())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// AppendRules adds rules after every rule already in the config at path,
// creating the file from defaults when it does not exist. TOML files keep
// their text and comments; other layouts are re-encoded.
func AppendRules(path string, add []rules.Rule) error {
	if len(add) == 0 {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Defaults()
		cfg.Rules = toRuleConfigs(add)
		out, err := Encode(path, cfg)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		return os.WriteFile(path, out, 0o644)
	}
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	if !isYAML(path) && !inlineRules.Match(data) {
		block, err := toml.Marshal(struct {
			Rules []RuleConfig `toml:"rules"`
		}{Rules: toRuleConfigs(add)})
		if err != nil {
			return fmt.Errorf("encoding rules: %w", err)
		}

		var buf bytes.Buffer
		buf.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
		buf.WriteString("\n# Baseline: locks files at their current size.\n")
		buf.Write(block)
		return os.WriteFile(path, buf.Bytes(), 0o644)
	}

	cfg, err := Parse(path, data)
	if err != nil {
		return err
	}
	log.Debugf("re-encoding %s to append %d rules", path, len(add))
	cfg.Rules = append(cfg.Rules, toRuleConfigs(add)...)
	out, err := Encode(path, cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

func toRuleConfigs(rs []rules.Rule) []RuleConfig {
	out := make([]RuleConfig, len(rs))
	for i, r := range rs {
		out[i] = RuleConfig{Path: r.Pattern, MaxLines: r.MaxLines}
	}
	return out
}
