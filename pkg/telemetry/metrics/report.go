package metrics

import (
	"lectern-hq/lectern/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ReportMetrics tracks report persistence and retention.
//
// Metrics:
//   - lectern_reports_stored_total: Report writes by backend and status
//   - lectern_reports_pruned_total: Reports removed by retention
type ReportMetrics struct {
	storedTotal *prometheus.CounterVec
	prunedTotal prometheus.Counter
}

// NewReportMetrics creates and registers report metrics.
func NewReportMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ReportMetrics {
	rm := &ReportMetrics{
		storedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reports_stored_total",
				Help:      "Total number of validation report writes",
			},
			[]string{"backend", "status"},
		),

		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reports_pruned_total",
				Help:      "Total number of validation reports removed by retention",
			},
		),
	}

	registry.MustRegister(rm.storedTotal, rm.prunedTotal)
	return rm
}

// RecordStored records one report write.
func (rm *ReportMetrics) RecordStored(backend, status string) {
	rm.storedTotal.WithLabelValues(backend, status).Inc()
}

// RecordPruned adds n pruned reports.
func (rm *ReportMetrics) RecordPruned(n int64) {
	if n > 0 {
		rm.prunedTotal.Add(float64(n))
	}
}
