package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sofmeright/loq/src/config"
	"github.com/sofmeright/loq/src/lint"
	"github.com/sofmeright/loq/src/log"
)

var initBaseline bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a loq.toml",
	Long: `Write a default loq.toml in the current directory.

With --baseline, every file currently over its limit gets a rule locking it
at its present size. Rules are appended to the existing config, or to a new
loq.toml when there is none, so files can shrink but not grow.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initBaseline, "baseline", false, "add rules exempting current violations at their current size")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	w := stdout(cmd)

	if !initBaseline {
		path := cfgFile
		if path == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fail(ExitError, fmt.Errorf("getting working directory: %w", err))
			}
			path = filepath.Join(wd, config.DefaultFile)
		}
		if err := config.WriteDefault(path); err != nil {
			return fail(ExitError, err)
		}
		fmt.Fprintf(w, "wrote %s\n", path)
		return nil
	}

	s, err := prepare(nil)
	if err != nil {
		return fail(ExitError, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	add, report, err := lint.GenerateBaseline(ctx, s.files, s.rules, s.collector.FS())
	if err != nil {
		return fail(ExitError, err)
	}

	path := s.cfg.Path
	created := path == ""
	if created {
		path = filepath.Join(s.root, config.DefaultFile)
	}
	if created && len(add) == 0 {
		err = config.WriteDefault(path)
	} else {
		err = config.AppendRules(path, add)
	}
	if err != nil {
		return fail(ExitError, fmt.Errorf("updating %s: %w", path, err))
	}
	log.Debugf("baseline: %d files checked, %d skipped", report.Checked, len(report.Skipped))

	rulesAdded := fmt.Sprintf("%d rules", len(add))
	if len(add) == 1 {
		rulesAdded = "1 rule"
	}
	switch {
	case created:
		fmt.Fprintf(w, "created %s with %s\n", path, rulesAdded)
	case len(add) == 0:
		fmt.Fprintf(w, "no violations, %s unchanged\n", path)
	default:
		fmt.Fprintf(w, "added %s to %s\n", rulesAdded, path)
	}
	return nil
}
