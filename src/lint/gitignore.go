package lint

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/sofmeright/loq/src/rules"
)

// Gitignore matches paths against every .gitignore below a root plus
// .git/info/exclude, composed the way git composes them.
type Gitignore struct {
	matcher gitignore.Matcher
	count   int
}

// LoadGitignore reads ignore files under root. A tree with no ignore files
// yields a matcher that ignores nothing.
func LoadGitignore(root string) (*Gitignore, error) {
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, fmt.Errorf("reading gitignore files: %w", err)
	}
	return &Gitignore{
		matcher: gitignore.NewMatcher(patterns),
		count:   len(patterns),
	}, nil
}

// Patterns returns the number of ignore patterns loaded.
func (g *Gitignore) Patterns() int { return g.count }

// Ignored reports whether the file at path, or any directory above it, is
// ignored.
func (g *Gitignore) Ignored(path string) bool {
	parts := splitPath(path)
	if len(parts) == 0 {
		return false
	}
	for i := 1; i < len(parts); i++ {
		if g.matcher.Match(parts[:i], true) {
			return true
		}
	}
	return g.matcher.Match(parts, false)
}

// IgnoredDir reports whether the directory at path is ignored.
func (g *Gitignore) IgnoredDir(path string) bool {
	parts := splitPath(path)
	if len(parts) == 0 {
		return false
	}
	return g.matcher.Match(parts, true)
}

func splitPath(path string) []string {
	path = strings.Trim(rules.NormalizePath(path), "/")
	if path == "" || path == "." {
		return nil
	}
	return strings.Split(path, "/")
}
