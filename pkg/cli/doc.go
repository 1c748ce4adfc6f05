/*
Package cli provides command-line interface utilities for Lectern.

The cli package includes output formatters, report rendering and common CLI
helpers used by the lectern command.

Output Formatting:

Command results are written as text, JSON or CSV:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Results that implement Table render as aligned columns in text and as rows
in CSV.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
