package lint

import (
	"context"
	"io/fs"

	"github.com/sofmeright/loq/src/rules"
)

// BaselineRules turns the violations of a report into file-specific rules
// that lock each offending file at its current size. Files already within
// their limit get nothing, so a baseline never lowers a limit.
func BaselineRules(report *Report) []rules.Rule {
	if report == nil || len(report.Violations) == 0 {
		return nil
	}
	out := make([]rules.Rule, 0, len(report.Violations))
	for _, v := range report.Violations {
		out = append(out, rules.Rule{
			Pattern:  rules.EscapePattern(v.Path),
			MaxLines: v.Lines,
		})
	}
	return out
}

// GenerateBaseline scans files under existing and returns the rules to
// append after existing's own rules. Applying the result and generating
// again yields no rules.
func GenerateBaseline(ctx context.Context, files []FileInfo, existing *rules.RuleSet, fsys fs.FS) ([]rules.Rule, *Report, error) {
	engine, err := NewEngine(existing, fsys)
	if err != nil {
		return nil, nil, err
	}
	report := engine.Scan(ctx, files)
	if err := ctx.Err(); err != nil {
		// A partial scan would produce a partial baseline.
		return nil, report, err
	}
	return BaselineRules(report), report, nil
}
