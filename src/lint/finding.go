package lint

import (
	"fmt"
	"time"

	"github.com/sofmeright/loq/src/rules"
)

// FileInfo is one candidate file produced by the collector.
type FileInfo struct {
	Path    string // slash-separated, relative to the scan root
	AbsPath string // absolute path on disk, empty for in-memory trees
}

// Violation is a file whose line count exceeds its resolved limit.
type Violation struct {
	Path     string
	Lines    int
	MaxLines int
	Source   string // rules.SourceDefault or the winning pattern
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %d lines exceeds limit %d (%s)", v.Path, v.Lines, v.MaxLines, v.Source)
}

// FileResult is the per-file outcome of a scan. Excluded files never get one.
type FileResult struct {
	Path  string
	Lines int
	Limit rules.ResolvedLimit
	Err   error // read failure; Lines is meaningless when set
}

// Over reports whether the file breaks its limit.
func (r FileResult) Over() bool {
	return r.Err == nil && r.Lines > r.Limit.MaxLines
}

// Report is the ordered result of a scan, in collector order.
type Report struct {
	Results    []FileResult // every measured or unreadable file
	Violations []Violation
	Skipped    []FileResult // unreadable files
	Checked    int
	Elapsed    time.Duration
}

// Passed reports whether no file broke its limit.
func (r *Report) Passed() bool { return len(r.Violations) == 0 }
