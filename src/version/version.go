package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// These variables are injected at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String returns a human-readable version string.
func String() string {
	return fmt.Sprintf("loq %s (%s, %s)", Version, Commit, BuildDate)
}

// IsRelease reports whether Version is a semantic version rather than a
// development build.
func IsRelease() bool {
	_, err := semver.NewVersion(strings.TrimPrefix(Version, "v"))
	return err == nil
}

// ValidConstraint reports whether c parses as a version constraint such as
// ">= 0.2, < 1.0".
func ValidConstraint(c string) bool {
	_, err := semver.NewConstraint(c)
	return err == nil
}

// Satisfies checks the running binary against a constraint. Development
// builds satisfy every constraint.
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing version constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(strings.TrimPrefix(Version, "v"))
	if err != nil {
		return true, nil
	}
	return c.Check(v), nil
}
