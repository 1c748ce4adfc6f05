// Package telemetry groups Lectern's observability packages.
//
//   - logging: structured slog logging with field redaction and
//     submission context fields
//   - metrics: Prometheus metrics for resolution, conversion, validation,
//     the regex cache and report storage
//   - health: liveness and readiness endpoints for `lectern watch`
package telemetry
