package lint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sofmeright/loq/src/log"
	"github.com/sofmeright/loq/src/rules"
)

// ErrOutsideRoot is returned for paths that are not below the project root.
var ErrOutsideRoot = errors.New("outside the project root")

// Collector enumerates candidate files below Root in a stable order.
type Collector struct {
	Root      string
	Gitignore *Gitignore // nil when gitignore files are not respected
}

// NewCollector resolves root and, when respectGitignore is set, loads the
// ignore files below it.
func NewCollector(root string, respectGitignore bool) (*Collector, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}
	c := &Collector{Root: abs}
	if respectGitignore {
		gi, err := LoadGitignore(abs)
		if err != nil {
			return nil, err
		}
		log.Debugf("gitignore: %d patterns under %s", gi.Patterns(), abs)
		c.Gitignore = gi
	}
	return c, nil
}

// Ignorer exposes the gitignore matcher to rules.RuleSet, or nil.
func (c *Collector) Ignorer() rules.Ignorer {
	if c.Gitignore == nil {
		return nil
	}
	return c.Gitignore
}

// FS returns the filesystem that collected paths are relative to.
func (c *Collector) FS() fs.FS { return os.DirFS(c.Root) }

// Collect walks each path (file or directory, relative to the working
// directory or absolute) and returns regular files in lexical walk order.
// No paths means the whole root. Files reached twice are listed once.
func (c *Collector) Collect(paths ...string) ([]FileInfo, error) {
	if len(paths) == 0 {
		paths = []string{c.Root}
	}

	var files []FileInfo
	seen := make(map[string]bool)

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		if _, err := c.rel(abs); err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("checking %s: %w", p, err)
		}

		err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				// Unreadable entries are warnings, the walk goes on.
				log.Warnf("skipping %s: %v", path, err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			rel, err := c.rel(path)
			if err != nil {
				return err
			}

			if d.IsDir() {
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				if rel != "." && c.Gitignore != nil && c.Gitignore.IgnoredDir(rel) {
					return filepath.SkipDir
				}
				return nil
			}

			// Skip non-regular files
			if !d.Type().IsRegular() {
				return nil
			}

			// Explicit file arguments are kept; RuleSet.Resolve drops them.
			if path != abs && c.Gitignore != nil && c.Gitignore.Ignored(rel) {
				return nil
			}

			if seen[rel] {
				return nil
			}
			seen[rel] = true

			files = append(files, FileInfo{
				Path:    rel,
				AbsPath: path,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// rel converts an absolute path to a slash path relative to Root.
func (c *Collector) rel(abs string) (string, error) {
	rel, err := filepath.Rel(c.Root, abs)
	if err != nil {
		return "", fmt.Errorf("%s is not under %s: %w", abs, c.Root, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s: %w %s", abs, ErrOutsideRoot, c.Root)
	}
	return rel, nil
}
