package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sofmeright/loq/src/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
		return nil
	},
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.AddCommand(versionCmd)
}
