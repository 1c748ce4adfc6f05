// Package logging provides structured logging for Lectern on top of log/slog.
//
// Loggers write JSON, text or console output and can mask the values of
// configured attribute keys, typically participant identifiers found in
// submitted records:
//
//	logger, err := logging.New(logging.Config{
//	    Level:        "info",
//	    Format:       "json",
//	    RedactFields: []string{"donor_id"},
//	})
//
//	ctx = logging.WithSubmissionID(ctx, id)
//	ctx = logging.WithSchema(ctx, "donor")
//	logger.InfoContext(ctx, "validation finished", "invalid_records", 3)
//
// Packages that take a *slog.Logger receive logger.Slog().
package logging
