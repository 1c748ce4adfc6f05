package metrics

import (
	"strconv"
	"time"

	"lectern-hq/lectern/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ValidationMetrics tracks record conversion and validation.
//
// Metrics:
//   - lectern_records_converted_total: Raw records converted, by schema
//   - lectern_conversion_failures_total: Records with at least one type error
//   - lectern_validations_total: Validation runs by schema and outcome
//   - lectern_records_validated_total: Records validated by schema
//   - lectern_records_invalid_total: Records with at least one error
//   - lectern_field_errors_total: Field errors by schema and reason
//   - lectern_validation_duration_seconds: Validation run duration
type ValidationMetrics struct {
	recordsConverted   *prometheus.CounterVec
	conversionFailures *prometheus.CounterVec
	validationsTotal   *prometheus.CounterVec
	recordsValidated   *prometheus.CounterVec
	recordsInvalid     *prometheus.CounterVec
	fieldErrors        *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
}

// NewValidationMetrics creates and registers validation metrics.
func NewValidationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ValidationMetrics {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      name,
				Help:      help,
			},
			labels,
		)
	}

	vm := &ValidationMetrics{
		recordsConverted:   counter("records_converted_total", "Total number of raw records converted", "schema"),
		conversionFailures: counter("conversion_failures_total", "Total number of records with a value type error", "schema"),
		validationsTotal:   counter("validations_total", "Total number of validation runs", "schema", "valid"),
		recordsValidated:   counter("records_validated_total", "Total number of records validated", "schema"),
		recordsInvalid:     counter("records_invalid_total", "Total number of records that failed validation", "schema"),
		fieldErrors:        counter("field_errors_total", "Total number of field errors", "schema", "reason"),
		validationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validation_duration_seconds",
				Help:      "Duration of a validation run in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"schema"},
		),
	}

	registry.MustRegister(
		vm.recordsConverted,
		vm.conversionFailures,
		vm.validationsTotal,
		vm.recordsValidated,
		vm.recordsInvalid,
		vm.fieldErrors,
		vm.validationDuration,
	)

	return vm
}

// RecordConversion records converted records for a schema.
func (vm *ValidationMetrics) RecordConversion(schema string, records, failedRecords int) {
	vm.recordsConverted.WithLabelValues(schema).Add(float64(records))
	vm.conversionFailures.WithLabelValues(schema).Add(float64(failedRecords))
}

// RecordValidation records one validation run.
func (vm *ValidationMetrics) RecordValidation(schema string, valid bool, records, invalidRecords int, duration time.Duration) {
	vm.validationsTotal.WithLabelValues(schema, strconv.FormatBool(valid)).Inc()
	vm.recordsValidated.WithLabelValues(schema).Add(float64(records))
	vm.recordsInvalid.WithLabelValues(schema).Add(float64(invalidRecords))
	vm.validationDuration.WithLabelValues(schema).Observe(duration.Seconds())
}

// RecordFieldError counts one field error.
func (vm *ValidationMetrics) RecordFieldError(schema, reason string) {
	vm.fieldErrors.WithLabelValues(schema, reason).Inc()
}
