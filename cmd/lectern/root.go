package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lectern-hq/lectern/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Lectern - data dictionary validation",
	Long: `Lectern validates tabular data submissions against versioned data
dictionaries.

A dictionary defines schemas, their fields and the restrictions on field
values, including conditional restrictions that depend on other fields of
the same record and references shared across the document.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Invalid submissions exit with status 2 and
// other failures with status 1.
func Execute() {
	ctx, stop := cli.SetupSignalHandler()
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if errors.Is(err, cli.ErrInvalidSubmission) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and LECTERN_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
