package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern-hq/lectern/pkg/cli"
	"lectern-hq/lectern/pkg/dictionary/manager"
	"lectern-hq/lectern/pkg/dictionary/parser"
	"lectern-hq/lectern/pkg/engine"
	"lectern-hq/lectern/pkg/submission"
)

var validateFlags struct {
	dictionary string
	name       string
	version    string
	schema     string
	data       string
	format     string
	output     string
	store      bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a data submission",
	Long: `Validate a tab-separated data submission against a schema.

The dictionary is either a document given with --dictionary or a dictionary
loaded from the configured dictionaries path, chosen with --name and
--dictionary-version (latest when no version is given).

The command exits with status 2 when the submission is invalid.

Examples:
  # Validate against a dictionary file
  lectern validate --dictionary clinical.json --schema donor --data donor.tsv

  # Validate against the latest loaded version and keep the report
  lectern validate --name clinical --schema donor --data donor.tsv --store

  # JSON report
  lectern validate --dictionary clinical.json --schema donor --data donor.tsv --format json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.dictionary, "dictionary", "d", "", "dictionary document (JSON or YAML)")
	validateCmd.Flags().StringVar(&validateFlags.name, "name", "", "name of a loaded dictionary")
	validateCmd.Flags().StringVar(&validateFlags.version, "dictionary-version", "", "version of a loaded dictionary (default: latest)")
	validateCmd.Flags().StringVarP(&validateFlags.schema, "schema", "s", "", "schema name")
	validateCmd.Flags().StringVar(&validateFlags.data, "data", "", "TSV submission file")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "", "output file (default: stdout)")
	validateCmd.Flags().BoolVar(&validateFlags.store, "store", false, "persist the report in the configured report store")
	validateCmd.MarkFlagsMutuallyExclusive("dictionary", "name")
	validateCmd.MarkFlagsOneRequired("dictionary", "name")
	_ = validateCmd.MarkFlagRequired("schema")
	_ = validateCmd.MarkFlagRequired("data")
}

func runValidate(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(validateFlags.format))
	if err != nil {
		return err
	}

	deps, err := setup()
	if err != nil {
		return err
	}
	defer deps.flushMetrics()
	ctx := cmd.Context()

	sub := engine.Submission{Schema: validateFlags.schema}
	opts := engine.Options{}

	if validateFlags.dictionary != "" {
		dict, err := parser.ParseFile(validateFlags.dictionary)
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		sub.Dictionary = dict
	} else {
		m := manager.New(&deps.config.Dictionaries, deps.metrics, deps.logger)
		if err := m.Load(); err != nil {
			return cli.NewCommandError("validate", err)
		}
		opts.Source = m
		sub.Name = validateFlags.name
		sub.Version = validateFlags.version
	}

	sub.Records, err = submission.ReadFile(validateFlags.data)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	if validateFlags.store {
		if !deps.config.Reports.Enabled {
			return cli.NewConfigError("reports.enabled", "report storage is disabled")
		}
		store, err := deps.openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	eng, err := deps.newEngine(opts)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	r, err := eng.ValidateSubmission(ctx, sub)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	out, err := openOutput(validateFlags.output)
	if err != nil {
		return cli.NewCommandError("validate", fmt.Errorf("failed to open output: %w", err))
	}
	defer out.Close()

	var view any = r
	if _, ok := formatter.(*cli.TextFormatter); ok {
		view = cli.ReportView{Report: r}
	}
	if err := formatter.FormatTo(out, view); err != nil {
		return cli.NewCommandError("validate", err)
	}

	if !r.Valid {
		return cli.ErrInvalidSubmission
	}
	return nil
}
