package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lectern-hq/lectern/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)
	if collector.Registry() != registry {
		t.Error("collector registry not set correctly")
	}

	cfg = &config.MetricsConfig{Enabled: true}
	NewCollector(cfg, nil)
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected default namespace, got %q", cfg.Namespace)
	}
}

func TestCollector_Validation(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordConversion("donor", 10, 2)
	collector.RecordValidation("donor", false, 10, 3, 20*time.Millisecond)
	collector.RecordValidation("donor", true, 5, 0, time.Millisecond)
	collector.RecordFieldError("donor", "INVALID_BY_RESTRICTION")
	collector.RecordFieldError("donor", "INVALID_BY_RESTRICTION")

	vm := collector.validationMetrics
	if got := testutil.ToFloat64(vm.recordsConverted.WithLabelValues("donor")); got != 10 {
		t.Errorf("records converted = %v, want 10", got)
	}
	if got := testutil.ToFloat64(vm.conversionFailures.WithLabelValues("donor")); got != 2 {
		t.Errorf("conversion failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(vm.validationsTotal.WithLabelValues("donor", "false")); got != 1 {
		t.Errorf("invalid validations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(vm.recordsValidated.WithLabelValues("donor")); got != 15 {
		t.Errorf("records validated = %v, want 15", got)
	}
	if got := testutil.ToFloat64(vm.recordsInvalid.WithLabelValues("donor")); got != 3 {
		t.Errorf("records invalid = %v, want 3", got)
	}
	if got := testutil.ToFloat64(vm.fieldErrors.WithLabelValues("donor", "INVALID_BY_RESTRICTION")); got != 2 {
		t.Errorf("field errors = %v, want 2", got)
	}
}

func TestCollector_DictionaryAndReports(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordResolution("clinical", "success", time.Millisecond)
	collector.RecordResolution("clinical", "cyclic", time.Millisecond)
	collector.RecordReload("success")
	collector.UpdateDictionariesLoaded(3)
	collector.RecordReportStored("sqlite", "success")
	collector.RecordReportsPruned(4)
	collector.RecordReportsPruned(0)

	dm := collector.dictionaryMetrics
	if got := testutil.ToFloat64(dm.resolutionsTotal.WithLabelValues("clinical", "cyclic")); got != 1 {
		t.Errorf("cyclic resolutions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(dm.reloadsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(dm.loaded); got != 3 {
		t.Errorf("loaded = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.reportMetrics.storedTotal.WithLabelValues("sqlite", "success")); got != 1 {
		t.Errorf("stored = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.reportMetrics.prunedTotal); got != 4 {
		t.Errorf("pruned = %v, want 4", got)
	}
}

func TestCollector_Cache(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordCacheLookup(CacheName, true)
	collector.RecordCacheLookup(CacheName, false)
	collector.RecordCacheLookup(CacheName, false)
	collector.UpdateCacheSize(CacheName, 7)

	cm := collector.cacheMetrics
	if got := testutil.ToFloat64(cm.hitsTotal.WithLabelValues(CacheName)); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(cm.missesTotal.WithLabelValues(CacheName)); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(cm.entries.WithLabelValues(CacheName)); got != 7 {
		t.Errorf("entries = %v, want 7", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.RecordFieldError("donor", "INVALID_VALUE_TYPE")
	if got := testutil.CollectAndCount(collector.validationMetrics.fieldErrors); got != 0 {
		t.Errorf("disabled collector recorded %d series", got)
	}

	var nilCollector *Collector
	nilCollector.RecordValidation("donor", true, 1, 0, time.Millisecond)
}

func TestCollector_CardinalityLimit(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.RecordFieldError("donor", "INVALID_VALUE_TYPE")
	collector.RecordFieldError("specimen", "INVALID_VALUE_TYPE")

	fe := collector.validationMetrics.fieldErrors
	if got := testutil.ToFloat64(fe.WithLabelValues("donor", "INVALID_VALUE_TYPE")); got != 1 {
		t.Errorf("donor errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(fe.WithLabelValues(OverflowLabel, "INVALID_VALUE_TYPE")); got != 1 {
		t.Errorf("overflow errors = %v, want 1", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)
	for _, set := range []string{"a", "b", "a"} {
		if !cl.Allow(set) {
			t.Errorf("Allow(%q) = false, want true", set)
		}
	}
	if cl.Allow("c") {
		t.Error("Allow(c) = true past the limit")
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d, want 2", cl.Count())
	}
}

func TestCollector_WriteTextfile(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordReload("success")

	path := filepath.Join(t.TempDir(), "lectern.prom")
	if err := collector.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `test_dictionary_reloads_total{status="success"} 1`) {
		t.Errorf("textfile missing reload counter:\n%s", data)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.UpdateDictionariesLoaded(2)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_dictionaries_loaded 2") {
		t.Errorf("response missing gauge:\n%s", rec.Body.String())
	}
}
