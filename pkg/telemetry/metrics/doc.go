// Package metrics provides Prometheus metrics for Lectern.
//
// The Collector groups metrics for dictionary resolution and reloads, record
// conversion and validation, the compiled regular expression cache, and
// report storage. One-shot CLI runs export them with WriteTextfile; the
// long-running watch command serves them over HTTP through Handler.
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordValidation("donor", false, 120, 3, elapsed)
//	collector.RecordFieldError("donor", "INVALID_BY_RESTRICTION")
//
// Label values derived from dictionaries (dictionary and schema names) are
// capped by a CardinalityLimiter; values past the cap are reported as "other".
package metrics
