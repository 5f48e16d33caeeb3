package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sofmeright/loq/src/config"
	"github.com/sofmeright/loq/src/lint"
	"github.com/sofmeright/loq/src/log"
	"github.com/sofmeright/loq/src/output"
	"github.com/sofmeright/loq/src/rules"
)

var (
	checkChanged bool
	checkFormat  string
	checkJUnit   string
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Check files against their line limits",
	Long: `Check every file below the config directory, or only the given paths,
against its line limit.

Exit status is 0 when every file is within its limit, 1 when any file
exceeds it, and 2 for configuration or other errors.

With --changed only files changed against the target branch, plus
uncommitted work, are checked.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkChanged, "changed", false, "only check files changed against the target branch")
	checkCmd.Flags().StringVar(&checkFormat, "format", string(output.FormatText), "output format: text or json")
	checkCmd.Flags().StringVar(&checkJUnit, "junit", "", "also write a JUnit XML report to this path (default under CI: "+output.DefaultJUnitPath+")")

	rootCmd.AddCommand(checkCmd)
}

// scan is one configured run: the config, its rule set, and the files.
type scan struct {
	cfg       *config.Config
	root      string
	rules     *rules.RuleSet
	collector *lint.Collector
	files     []lint.FileInfo
}

// prepare loads config and collects files. Every error it returns is a
// configuration or setup failure.
func prepare(args []string) (*scan, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	root, err := cfg.Dir()
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}

	collector, err := lint.NewCollector(root, cfg.RespectGitignore)
	if err != nil {
		return nil, err
	}
	rs, err := cfg.RuleSet(collector.Ignorer())
	if err != nil {
		return nil, err
	}

	files, err := collector.Collect(args...)
	if err != nil {
		return nil, fmt.Errorf("collecting files: %w", err)
	}
	log.Debugf("collected %d files under %s", len(files), root)

	return &scan{cfg: cfg, root: root, rules: rs, collector: collector, files: files}, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(checkFormat)
	if err != nil {
		return fail(ExitError, err)
	}

	s, err := prepare(args)
	if err != nil {
		return fail(ExitError, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	files := s.files
	if checkChanged {
		delta := &lint.Delta{RootDir: s.root}
		changed, deltaErr := delta.ChangedFiles(ctx)
		if deltaErr != nil {
			log.Warnf("delta: %v, falling back to full scan", deltaErr)
		}
		if changed != nil {
			files = lint.FilterByDelta(files, changed)
			log.Debugf("delta: %d/%d files changed", len(files), len(s.files))
		}
	}

	engine, err := lint.NewEngine(s.rules, s.collector.FS())
	if err != nil {
		return fail(ExitError, err)
	}
	report := engine.Scan(ctx, files)
	if err := ctx.Err(); err != nil {
		return fail(ExitError, err)
	}

	w := stdout(cmd)
	color := output.UseColor() && format == output.FormatText

	if verbose && !silent && format == output.FormatText {
		output.RuleTable(cmd.ErrOrStderr(), s.rules, s.cfg.Path, report.Elapsed, color)
	}

	printer := output.NewPrinter(w)
	printer.Color = color
	printer.Verbose = verbose

	if format == output.FormatText {
		output.SectionStart(w, "loq_check", "loq check")
	}
	if err := printer.Render(report, format); err != nil {
		return fail(ExitError, fmt.Errorf("writing report: %w", err))
	}
	if format == output.FormatText {
		output.SectionEnd(w, "loq_check")
	}

	if path := junitPath(s.root); path != "" {
		if err := output.WriteJUnit(path, report); err != nil {
			log.Warnf("failed to write junit report: %v", err)
		} else {
			log.Debugf("junit report: %s", path)
		}
	}

	if !report.Passed() {
		return fail(ExitViolations, nil)
	}
	return nil
}

// junitPath returns the explicit --junit path, the CI default under root,
// or "" for no report.
func junitPath(root string) string {
	if checkJUnit != "" {
		return checkJUnit
	}
	if output.IsCI() {
		return filepath.Join(root, filepath.FromSlash(output.DefaultJUnitPath))
	}
	return ""
}
