package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"lectern-hq/lectern/pkg/cli"
	"lectern-hq/lectern/pkg/dictionary/parser"
	"lectern-hq/lectern/pkg/engine"
)

var resolveFlags struct {
	file   string
	output string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the references of a dictionary",
	Long: `Resolve every reference tag (#/path/to/value) of a dictionary document
and print the resolved dictionary as JSON.

Examples:
  # Print the resolved dictionary
  lectern resolve --file dictionary.json

  # Write it to a file
  lectern resolve --file dictionary.yaml --output resolved.json`,
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVarP(&resolveFlags.file, "file", "f", "", "dictionary document (JSON or YAML)")
	resolveCmd.Flags().StringVarP(&resolveFlags.output, "output", "o", "", "output file (default: stdout)")
	_ = resolveCmd.MarkFlagRequired("file")
}

func runResolve(cmd *cobra.Command, args []string) error {
	deps, err := setup()
	if err != nil {
		return err
	}
	defer deps.flushMetrics()

	dict, err := parser.ParseFile(resolveFlags.file)
	if err != nil {
		return cli.NewCommandError("resolve", err)
	}

	eng, err := deps.newEngine(engine.Options{})
	if err != nil {
		return cli.NewCommandError("resolve", err)
	}
	resolved, err := eng.ResolveDictionary(dict)
	if err != nil {
		return cli.NewCommandError("resolve", err)
	}

	out, err := openOutput(resolveFlags.output)
	if err != nil {
		return cli.NewCommandError("resolve", fmt.Errorf("failed to open output: %w", err))
	}
	defer out.Close()

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(resolved); err != nil {
		return cli.NewCommandError("resolve", fmt.Errorf("failed to write dictionary: %w", err))
	}
	return nil
}
