package lint

import (
	"context"
	"fmt"
	"io/fs"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sofmeright/loq/src/log"
	"github.com/sofmeright/loq/src/rules"
)

// Engine measures files against a RuleSet.
type Engine struct {
	Rules   *rules.RuleSet
	FS      fs.FS // files are opened by their relative Path
	Workers int   // 0 means runtime.NumCPU()*2
}

// NewEngine creates an engine reading files from fsys.
func NewEngine(rs *rules.RuleSet, fsys fs.FS) (*Engine, error) {
	if rs == nil {
		return nil, fmt.Errorf("lint: nil rule set")
	}
	if fsys == nil {
		return nil, fmt.Errorf("lint: nil filesystem")
	}
	return &Engine{Rules: rs, FS: fsys}, nil
}

// Scan measures every non-excluded file. Reads run concurrently; the report
// keeps the order of files. Unreadable files are logged and listed in
// Report.Skipped, they never abort the scan.
func (e *Engine) Scan(ctx context.Context, files []FileInfo) *Report {
	start := time.Now()

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	var (
		wg      sync.WaitGroup
		sem     = semaphore.NewWeighted(int64(workers))
		results = make([]*FileResult, len(files))
	)

	for i, file := range files {
		limit, ok := e.Rules.Resolve(file.Path)
		if !ok {
			continue
		}

		// Context cancelled: stop queueing, keep what finished.
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(idx int, f FileInfo, limit rules.ResolvedLimit) {
			defer wg.Done()
			defer sem.Release(1)

			lines, err := e.count(f.Path)
			// Each goroutine owns exactly one slot.
			results[idx] = &FileResult{
				Path:  limit.Path,
				Lines: lines,
				Limit: limit,
				Err:   err,
			}
		}(i, file, limit)
	}

	wg.Wait()

	report := &Report{}
	for _, r := range results {
		if r == nil {
			continue
		}
		report.Results = append(report.Results, *r)
		if r.Err != nil {
			log.Warnf("skipping %s: %v", r.Path, r.Err)
			report.Skipped = append(report.Skipped, *r)
			continue
		}
		report.Checked++
		if r.Over() {
			report.Violations = append(report.Violations, Violation{
				Path:     r.Path,
				Lines:    r.Lines,
				MaxLines: r.Limit.MaxLines,
				Source:   r.Limit.Source,
			})
		}
	}
	report.Elapsed = time.Since(start)

	return report
}

func (e *Engine) count(path string) (int, error) {
	f, err := e.FS.Open(rules.NormalizePath(path))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("is a directory")
	}

	n, err := CountReader(f)
	if err != nil {
		return 0, fmt.Errorf("reading: %w", err)
	}
	return n, nil
}
