package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sofmeright/loq/src/rules"
	"github.com/sofmeright/loq/src/version"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their config key, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("semver_constraint", func(fl validator.FieldLevel) bool {
		return version.ValidConstraint(fl.Field().String())
	})
	return v
}

// Validate checks cfg in one pass: structural constraints, the
// required_version gate, then glob syntax and limits. Every problem is
// returned together in a *rules.ConfigError.
func Validate(cfg *Config) error {
	cerr := &rules.ConfigError{File: cfg.Path}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating config: %w", err)
		}
		for _, fe := range verrs {
			cerr.Problems = append(cerr.Problems, rules.Problem{
				Field:   fieldName(fe),
				Value:   fmt.Sprint(fe.Value()),
				Message: validationMessage(fe),
			})
		}
	}

	if cfg.RequiredVersion != "" && version.ValidConstraint(cfg.RequiredVersion) {
		ok, err := version.Satisfies(cfg.RequiredVersion)
		if err == nil && !ok {
			cerr.Add("required_version", cfg.RequiredVersion,
				"loq %s does not satisfy %q", version.Version, cfg.RequiredVersion)
		}
	}

	if _, err := rules.New(cfg.options(nil)); err != nil {
		var rerr *rules.ConfigError
		if !errors.As(err, &rerr) {
			return err
		}
		cerr.Merge(rerr)
	}

	cfg.annotate(cerr)
	return cerr.ErrOrNil()
}

// fieldName strips the root type from a namespace like "Config.rules[1].path".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "semver_constraint":
		return fmt.Sprintf("%q is not a valid version constraint", fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

var indexedField = regexp.MustCompile(`^(rules|exclude)\[(\d+)\]`)

// annotate fills in the config file line of each problem where the
// offending value can be located in the raw file.
func (c *Config) annotate(cerr *rules.ConfigError) {
	if len(c.raw) == 0 {
		return
	}
	for i := range cerr.Problems {
		p := &cerr.Problems[i]
		if p.Line > 0 {
			continue
		}
		p.Line = c.locate(p.Field)
	}
}

func (c *Config) locate(field string) int {
	if m := indexedField.FindStringSubmatch(field); m != nil {
		idx, _ := strconv.Atoi(m[2])
		var value string
		switch m[1] {
		case "rules":
			if idx < len(c.Rules) {
				value = c.Rules[idx].Path
			}
		case "exclude":
			if idx < len(c.Exclude) {
				value = c.Exclude[idx]
			}
		}
		if value == "" {
			return 0
		}
		return findValueLine(c.raw, value)
	}
	return findKeyLine(c.raw, field)
}

// findKeyLine returns the 1-based line declaring a top-level key.
func findKeyLine(data []byte, key string) int {
	re := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(key) + `\s*[=:]`)
	line := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line++
		if re.MatchString(sc.Text()) {
			return line
		}
	}
	return 0
}

// findValueLine returns the 1-based line holding value as a quoted or bare
// string.
func findValueLine(data []byte, value string) int {
	needles := []string{
		`"` + strings.ReplaceAll(value, `\`, `\\`) + `"`,
		`'` + value + `'`,
	}
	line := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line++
		text := sc.Text()
		for _, n := range needles {
			if strings.Contains(text, n) {
				return line
			}
		}
		// Bare YAML scalar: "path: value" or "- value".
		trimmed := strings.TrimSpace(text)
		if strings.HasSuffix(trimmed, ": "+value) || trimmed == "- "+value {
			return line
		}
	}
	return 0
}
