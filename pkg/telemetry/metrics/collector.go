package metrics

import (
	"fmt"
	"sync"
	"time"

	"lectern-hq/lectern/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OverflowLabel replaces label values once the cardinality limit is reached.
const OverflowLabel = "other"

// Collector owns Lectern's Prometheus metrics. All Record methods are no-ops
// when metrics are disabled, and a nil *Collector is safe to call.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	dictionaryMetrics *DictionaryMetrics
	validationMetrics *ValidationMetrics
	cacheMetrics      *CacheMetrics
	reportMetrics     *ReportMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registering its metrics with registry.
// A nil registry gets a fresh one.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "lectern"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		dictionaryMetrics:  NewDictionaryMetrics(cfg, registry),
		validationMetrics:  NewValidationMetrics(cfg, registry),
		cacheMetrics:       NewCacheMetrics(cfg, registry),
		reportMetrics:      NewReportMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// label bounds the number of distinct values seen for one metric label.
func (c *Collector) label(metric, value string) string {
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("%s:%s", metric, value)) {
		return OverflowLabel
	}
	return value
}

// RecordResolution records one reference resolution of a dictionary.
// status is "success" or the failure reason.
func (c *Collector) RecordResolution(dictionary, status string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.dictionaryMetrics.RecordResolution(c.label("dictionary", dictionary), status, duration)
}

// RecordReload records a dictionary directory load with status "success" or
// "error".
func (c *Collector) RecordReload(status string) {
	if !c.enabled() {
		return
	}
	c.dictionaryMetrics.RecordReload(status)
}

// UpdateDictionariesLoaded sets the number of registered dictionaries.
func (c *Collector) UpdateDictionariesLoaded(n int) {
	if !c.enabled() {
		return
	}
	c.dictionaryMetrics.UpdateLoaded(n)
}

// RecordConversion records the conversion of raw records for a schema.
func (c *Collector) RecordConversion(schema string, records, failedRecords int) {
	if !c.enabled() {
		return
	}
	c.validationMetrics.RecordConversion(c.label("schema", schema), records, failedRecords)
}

// RecordValidation records one validation run over a schema's records.
func (c *Collector) RecordValidation(schema string, valid bool, records, invalidRecords int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.validationMetrics.RecordValidation(c.label("schema", schema), valid, records, invalidRecords, duration)
}

// RecordFieldError counts one field error by schema and reason.
func (c *Collector) RecordFieldError(schema, reason string) {
	if !c.enabled() {
		return
	}
	c.validationMetrics.RecordFieldError(c.label("schema", schema), reason)
}

// RecordCacheLookup records a hit or miss in the named cache.
func (c *Collector) RecordCacheLookup(cacheName string, hit bool) {
	if !c.enabled() {
		return
	}
	if hit {
		c.cacheMetrics.RecordHit(cacheName)
	} else {
		c.cacheMetrics.RecordMiss(cacheName)
	}
}

// UpdateCacheSize updates the current size of a cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.UpdateSize(cacheName, size)
}

// RecordReportStored records a report write with status "success" or "error".
func (c *Collector) RecordReportStored(backend, status string) {
	if !c.enabled() {
		return
	}
	c.reportMetrics.RecordStored(backend, status)
}

// RecordReportsPruned adds n to the number of reports removed by retention.
func (c *Collector) RecordReportsPruned(n int64) {
	if !c.enabled() {
		return
	}
	c.reportMetrics.RecordPruned(n)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already tracked or still fits under the
// limit, tracking it in the latter case.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
