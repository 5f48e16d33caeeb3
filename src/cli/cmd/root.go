package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/anchore/go-logger"
	"github.com/anchore/go-logger/adapter/logrus"
	"github.com/spf13/cobra"

	"github.com/sofmeright/loq/src/config"
	"github.com/sofmeright/loq/src/log"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitViolations = 1
	ExitError      = 2
)

var (
	cfgFile string
	verbose bool
	quiet   bool
	silent  bool
)

var rootCmd = &cobra.Command{
	Use:   "loq",
	Short: "Enforce maximum line counts per file",
	Long: `loq keeps files from growing past a line limit.

Limits come from an ordered list of glob rules in loq.toml; the last
matching rule wins and unmatched files get default_max_lines.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		SetupLogging(verbose, quiet, silent)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: nearest loq.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print violations and errors")
	rootCmd.PersistentFlags().BoolVar(&silent, "silent", false, "print nothing, report through the exit code")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// ExitCodeError carries the process exit code for a failed command.
// Err may be nil when the code alone is the message, as for violations.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error { return e.Err }

func fail(code int, err error) error {
	return &ExitCodeError{Code: code, Err: err}
}

// SetupLogging installs the process logger: warnings by default, debug with
// verbose, errors only with quiet, nothing with silent.
func SetupLogging(verbose, quiet, silent bool) {
	if silent {
		log.Set(nil)
		return
	}

	level := logger.WarnLevel
	switch {
	case verbose:
		level = logger.DebugLevel
	case quiet:
		level = logger.ErrorLevel
	}

	l, err := logrus.New(logrus.Config{
		EnableConsole: true,
		Level:         level,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logger setup failed: %v\n", err)
		return
	}
	log.Set(l)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// stdout returns where reports go, honoring --silent.
func stdout(cmd *cobra.Command) io.Writer {
	if silent {
		return io.Discard
	}
	return cmd.OutOrStdout()
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(rootCmd, os.Args[1:])
}

func run(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return ExitOK
	}

	code := ExitError
	var exit *ExitCodeError
	if errors.As(err, &exit) {
		code = exit.Code
		err = exit.Err
	}
	if err != nil && !silent {
		fmt.Fprintf(root.ErrOrStderr(), "error: %v\n", err)
	}
	return code
}
