package metrics

import (
	"time"

	"lectern-hq/lectern/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DictionaryMetrics tracks dictionary loading and reference resolution.
//
// Metrics:
//   - lectern_resolutions_total: Reference resolutions by dictionary and status
//   - lectern_resolution_duration_seconds: Reference resolution duration
//   - lectern_dictionary_reloads_total: Directory loads by status
//   - lectern_dictionaries_loaded: Dictionaries currently registered
type DictionaryMetrics struct {
	resolutionsTotal   *prometheus.CounterVec
	resolutionDuration *prometheus.HistogramVec
	reloadsTotal       *prometheus.CounterVec
	loaded             prometheus.Gauge
}

// NewDictionaryMetrics creates and registers dictionary metrics.
func NewDictionaryMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DictionaryMetrics {
	dm := &DictionaryMetrics{
		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "resolutions_total",
				Help:      "Total number of dictionary reference resolutions",
			},
			[]string{"dictionary", "status"},
		),

		resolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "resolution_duration_seconds",
				Help:      "Duration of dictionary reference resolution in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
			},
			[]string{"dictionary"},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dictionary_reloads_total",
				Help:      "Total number of dictionary directory loads",
			},
			[]string{"status"},
		),

		loaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dictionaries_loaded",
				Help:      "Number of dictionaries currently registered",
			},
		),
	}

	registry.MustRegister(
		dm.resolutionsTotal,
		dm.resolutionDuration,
		dm.reloadsTotal,
		dm.loaded,
	)

	return dm
}

// RecordResolution records one resolution.
func (dm *DictionaryMetrics) RecordResolution(dictionary, status string, duration time.Duration) {
	dm.resolutionsTotal.WithLabelValues(dictionary, status).Inc()
	dm.resolutionDuration.WithLabelValues(dictionary).Observe(duration.Seconds())
}

// RecordReload records one directory load.
func (dm *DictionaryMetrics) RecordReload(status string) {
	dm.reloadsTotal.WithLabelValues(status).Inc()
}

// UpdateLoaded sets the number of registered dictionaries.
func (dm *DictionaryMetrics) UpdateLoaded(n int) {
	dm.loaded.Set(float64(n))
}
