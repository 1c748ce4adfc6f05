package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lectern-hq/lectern/pkg/cli"
	"lectern-hq/lectern/pkg/report"
	"lectern-hq/lectern/pkg/report/retention"
)

var reportsFlags struct {
	dictionary string
	version    string
	schema     string
	valid      string
	since      string
	until      string
	limit      int
	offset     int
	order      string
	format     string
	output     string
	id         string

	days       int
	maxReports int64
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect and prune stored validation reports",
	Long: `Inspect and prune the validation reports kept in the report store.

Subcommands:
  list   - List reports matching filters
  show   - Show one report with its errors
  prune  - Apply the retention policy now`,
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	Long: `List stored reports, newest first.

Time Format:
  RFC3339, e.g. "2026-05-04T00:00:00Z"

Examples:
  # Invalid donor reports
  lectern reports list --schema donor --valid false

  # Reports of one dictionary version as CSV
  lectern reports list --dictionary clinical --dict-version 1.0 --format csv`,
	RunE: runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a stored report",
	RunE:  runReportsShow,
}

var reportsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete reports beyond the retention policy",
	Long: `Delete reports older than the retention period and the oldest reports
beyond the maximum count. Flags override the configured retention.

Examples:
  # Apply the configured retention
  lectern reports prune

  # Keep one week and at most 1000 reports
  lectern reports prune --days 7 --max-reports 1000`,
	RunE: runReportsPrune,
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd, reportsPruneCmd)

	reportsListCmd.Flags().StringVar(&reportsFlags.dictionary, "dictionary", "", "filter by dictionary name")
	reportsListCmd.Flags().StringVar(&reportsFlags.version, "dict-version", "", "filter by dictionary version")
	reportsListCmd.Flags().StringVar(&reportsFlags.schema, "schema", "", "filter by schema")
	reportsListCmd.Flags().StringVar(&reportsFlags.valid, "valid", "", "filter by outcome (true or false)")
	reportsListCmd.Flags().StringVar(&reportsFlags.since, "since", "", "only reports created at or after this time (RFC3339)")
	reportsListCmd.Flags().StringVar(&reportsFlags.until, "until", "", "only reports created at or before this time (RFC3339)")
	reportsListCmd.Flags().IntVar(&reportsFlags.limit, "limit", 100, "max results")
	reportsListCmd.Flags().IntVar(&reportsFlags.offset, "offset", 0, "pagination offset")
	reportsListCmd.Flags().StringVar(&reportsFlags.order, "order", report.SortDesc, "sort order: asc, desc")
	reportsListCmd.Flags().StringVar(&reportsFlags.format, "format", "text", "output format: text, json, csv")
	reportsListCmd.Flags().StringVarP(&reportsFlags.output, "output", "o", "", "output file (default: stdout)")

	reportsShowCmd.Flags().StringVar(&reportsFlags.id, "id", "", "report ID")
	reportsShowCmd.Flags().StringVar(&reportsFlags.format, "format", "text", "output format: text, json")
	_ = reportsShowCmd.MarkFlagRequired("id")

	reportsPruneCmd.Flags().IntVar(&reportsFlags.days, "days", 0, "retention period in days (default: from config)")
	reportsPruneCmd.Flags().Int64Var(&reportsFlags.maxReports, "max-reports", 0, "maximum number of reports (default: from config)")
}

func buildReportQuery() (*report.Query, error) {
	query := &report.Query{
		Dictionary: reportsFlags.dictionary,
		Version:    reportsFlags.version,
		Schema:     reportsFlags.schema,
		Limit:      reportsFlags.limit,
		Offset:     reportsFlags.offset,
		SortOrder:  reportsFlags.order,
	}

	if reportsFlags.valid != "" {
		valid, err := strconv.ParseBool(reportsFlags.valid)
		if err != nil {
			return nil, fmt.Errorf("invalid --valid value %q: %w", reportsFlags.valid, err)
		}
		query.Valid = &valid
	}
	if reportsFlags.since != "" {
		since, err := time.Parse(time.RFC3339, reportsFlags.since)
		if err != nil {
			return nil, fmt.Errorf("invalid --since: %w", err)
		}
		query.StartTime = &since
	}
	if reportsFlags.until != "" {
		until, err := time.Parse(time.RFC3339, reportsFlags.until)
		if err != nil {
			return nil, fmt.Errorf("invalid --until: %w", err)
		}
		query.EndTime = &until
	}

	if err := query.Validate(); err != nil {
		return nil, err
	}
	return query, nil
}

func runReportsList(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(reportsFlags.format))
	if err != nil {
		return err
	}
	query, err := buildReportQuery()
	if err != nil {
		return err
	}

	deps, err := setup()
	if err != nil {
		return err
	}
	store, err := deps.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	reports, err := store.Query(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("reports list", err)
	}

	out, err := openOutput(reportsFlags.output)
	if err != nil {
		return cli.NewCommandError("reports list", fmt.Errorf("failed to open output: %w", err))
	}
	defer out.Close()

	return formatter.FormatTo(out, cli.ReportList(reports))
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(reportsFlags.format))
	if err != nil {
		return err
	}

	deps, err := setup()
	if err != nil {
		return err
	}
	store, err := deps.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.Get(cmd.Context(), reportsFlags.id)
	if err != nil {
		return cli.NewCommandError("reports show", fmt.Errorf("report %s: %w", reportsFlags.id, err))
	}

	var view any = r
	if _, ok := formatter.(*cli.TextFormatter); ok {
		view = cli.ReportView{Report: r}
	}
	return formatter.FormatTo(cmd.OutOrStdout(), view)
}

func runReportsPrune(cmd *cobra.Command, args []string) error {
	deps, err := setup()
	if err != nil {
		return err
	}
	defer deps.flushMetrics()

	store, err := deps.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := retention.FromConfig(deps.config.Reports.Retention)
	if reportsFlags.days > 0 {
		cfg.RetentionDays = reportsFlags.days
	}
	if reportsFlags.maxReports > 0 {
		cfg.MaxReports = reportsFlags.maxReports
	}

	pruner := retention.NewPruner(store, cfg, deps.logger)
	pruner.OnPrune(deps.metrics.RecordReportsPruned)

	deleted, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("reports prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d reports\n", deleted)
	return nil
}
