package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"lectern-hq/lectern/pkg/config"
	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/dictionary/parser"
	"lectern-hq/lectern/pkg/report"
	"lectern-hq/lectern/pkg/report/storage"
	"lectern-hq/lectern/pkg/telemetry/metrics"
	"lectern-hq/lectern/pkg/validation"
)

const clinicalDictionary = `{
  "name": "clinical",
  "version": "1.0",
  "references": {"SEX": ["Male", "Female"]},
  "schemas": [{
    "name": "donor",
    "fields": [
      {"name": "donor_id", "valueType": "string", "unique": true, "restrictions": {"required": true}},
      {"name": "sex", "valueType": "string", "restrictions": {"codeList": "#/SEX"}},
      {"name": "age", "valueType": "integer", "restrictions": {"range": {"min": 0, "max": 120}}}
    ]
  }]
}`

func parseDictionary(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	dict, err := parser.ParseBytes([]byte(clinicalDictionary))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	return dict
}

type staticSource struct {
	dict *dictionary.Dictionary
}

func (s staticSource) Get(name, version string) (*dictionary.Dictionary, error) {
	if name != s.dict.Name || (version != "" && version != s.dict.Version) {
		return nil, errors.New("not found")
	}
	return s.dict, nil
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Reports.Backend = "memory"
	e, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestEngine_ValidateSubmission(t *testing.T) {
	tests := []struct {
		name        string
		records     []dictionary.UnprocessedDataRecord
		wantValid   bool
		wantInvalid int
		wantReasons map[int][]validation.ErrorReason
	}{
		{
			name: "valid",
			records: []dictionary.UnprocessedDataRecord{
				{"donor_id": "D1", "sex": "male", "age": "42"},
				{"donor_id": "D2", "sex": "Female"},
			},
			wantValid: true,
		},
		{
			name: "type error reported once",
			records: []dictionary.UnprocessedDataRecord{
				{"donor_id": "D1", "age": "forty"},
			},
			wantInvalid: 1,
			wantReasons: map[int][]validation.ErrorReason{
				0: {validation.ReasonInvalidValueType},
			},
		},
		{
			name: "unrecognized field reported once",
			records: []dictionary.UnprocessedDataRecord{
				{"donor_id": "D1", "weight": "70"},
			},
			wantInvalid: 1,
			wantReasons: map[int][]validation.ErrorReason{
				0: {validation.ReasonUnrecognizedField},
			},
		},
		{
			name: "restriction and unique errors",
			records: []dictionary.UnprocessedDataRecord{
				{"donor_id": "D1", "sex": "unknown"},
				{"donor_id": "D1", "age": "200"},
				{"sex": "Male"},
			},
			wantInvalid: 3,
			wantReasons: map[int][]validation.ErrorReason{
				0: {validation.ReasonInvalidByRestriction, validation.ReasonInvalidByUnique},
				1: {validation.ReasonInvalidByRestriction, validation.ReasonInvalidByUnique},
				2: {validation.ReasonInvalidByRestriction},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStorage()
			e := newTestEngine(t, Options{Store: store})

			r, err := e.ValidateSubmission(context.Background(), Submission{
				Dictionary: parseDictionary(t),
				Schema:     "donor",
				Records:    tt.records,
			})
			if err != nil {
				t.Fatalf("ValidateSubmission() error = %v", err)
			}

			if r.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors %+v)", r.Valid, tt.wantValid, r.Errors)
			}
			if r.InvalidRecordCount != tt.wantInvalid {
				t.Errorf("InvalidRecordCount = %d, want %d", r.InvalidRecordCount, tt.wantInvalid)
			}
			if r.RecordCount != len(tt.records) {
				t.Errorf("RecordCount = %d, want %d", r.RecordCount, len(tt.records))
			}
			if r.Dictionary != "clinical" || r.Version != "1.0" || r.Schema != "donor" {
				t.Errorf("report identity = %s@%s/%s", r.Dictionary, r.Version, r.Schema)
			}

			for _, re := range r.Errors {
				want := tt.wantReasons[re.Index]
				if len(re.Errors) != len(want) {
					t.Errorf("record %d errors = %+v, want reasons %v", re.Index, re.Errors, want)
					continue
				}
				for i, fe := range re.Errors {
					if fe.Reason != want[i] {
						t.Errorf("record %d error %d reason = %s, want %s", re.Index, i, fe.Reason, want[i])
					}
				}
			}

			stored, err := store.Get(context.Background(), r.ID)
			if err != nil {
				t.Fatalf("stored report: %v", err)
			}
			if stored.Valid != r.Valid {
				t.Errorf("stored Valid = %v, want %v", stored.Valid, r.Valid)
			}
		})
	}
}

func TestEngine_ValidateSubmission_Errors(t *testing.T) {
	dict := parseDictionary(t)
	e := newTestEngine(t, Options{})
	resolved, err := e.ResolveDictionary(dict)
	if err != nil {
		t.Fatalf("ResolveDictionary() error = %v", err)
	}

	tests := []struct {
		name    string
		engine  *Engine
		sub     Submission
		wantErr error
	}{
		{
			name:    "no dictionary",
			engine:  e,
			sub:     Submission{Name: "clinical", Schema: "donor"},
			wantErr: ErrNoDictionary,
		},
		{
			name:    "unknown schema",
			engine:  e,
			sub:     Submission{Dictionary: resolved, Schema: "specimen"},
			wantErr: ErrSchemaNotFound,
		},
		{
			name:   "source lookup failure",
			engine: newTestEngine(t, Options{Source: staticSource{dict: resolved}}),
			sub:    Submission{Name: "clinical", Version: "9.9", Schema: "donor"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.engine.ValidateSubmission(context.Background(), tt.sub)
			if err == nil {
				t.Fatal("ValidateSubmission() expected error")
			}
			var se *SubmissionError
			if !errors.As(err, &se) {
				t.Errorf("error type = %T, want *SubmissionError", err)
			}
			if se != nil && se.SubmissionID == "" {
				t.Error("SubmissionID not generated")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngine_SourceLookup(t *testing.T) {
	e := newTestEngine(t, Options{})
	resolved, err := e.ResolveDictionary(parseDictionary(t))
	if err != nil {
		t.Fatalf("ResolveDictionary() error = %v", err)
	}

	e = newTestEngine(t, Options{Source: staticSource{dict: resolved}})
	r, err := e.ValidateSubmission(context.Background(), Submission{
		ID:      "sub-1",
		Name:    "clinical",
		Schema:  "donor",
		Records: []dictionary.UnprocessedDataRecord{{"donor_id": "D1", "sex": "FEMALE"}},
	})
	if err != nil {
		t.Fatalf("ValidateSubmission() error = %v", err)
	}
	if !r.Valid {
		t.Errorf("report invalid: %+v", r.Errors)
	}
}

func TestEngine_ResolveDictionaryFailure(t *testing.T) {
	dict := parseDictionary(t)
	dict.References = dictionary.References{}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "test"}, registry)
	e := newTestEngine(t, Options{Metrics: collector})

	if _, err := e.ResolveDictionary(dict); err == nil {
		t.Fatal("ResolveDictionary() expected error")
	}

	expected := `
# HELP test_resolutions_total Total number of dictionary reference resolutions
# TYPE test_resolutions_total counter
test_resolutions_total{dictionary="clinical",status="not_found"} 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_resolutions_total"); err != nil {
		t.Error(err)
	}
}

func TestEngine_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "test"}, registry)
	e := newTestEngine(t, Options{Store: storage.NewMemoryStorage(), Metrics: collector})

	_, err := e.ValidateSubmission(context.Background(), Submission{
		Dictionary: parseDictionary(t),
		Schema:     "donor",
		Records:    []dictionary.UnprocessedDataRecord{{"donor_id": "D1"}},
	})
	if err != nil {
		t.Fatalf("ValidateSubmission() error = %v", err)
	}

	expected := `
# HELP test_reports_stored_total Total number of validation report writes
# TYPE test_reports_stored_total counter
test_reports_stored_total{backend="memory",status="success"} 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_reports_stored_total"); err != nil {
		t.Error(err)
	}
}

func TestEngine_StoreFailure(t *testing.T) {
	store := storage.NewMemoryStorage()
	_ = store.Close()
	e := newTestEngine(t, Options{Store: store})

	_, err := e.ValidateSubmission(context.Background(), Submission{
		Dictionary: parseDictionary(t),
		Schema:     "donor",
		Records:    []dictionary.UnprocessedDataRecord{{"donor_id": "D1"}},
	})
	var se *report.StorageError
	if !errors.As(err, &se) {
		t.Errorf("error = %v, want wrapped *report.StorageError", err)
	}
}

func TestEngine_RegexLimitsPerEngine(t *testing.T) {
	const specimenDictionary = `{
  "name": "biospecimen",
  "version": "1.0",
  "schemas": [{
    "name": "specimen",
    "fields": [
      {"name": "specimen_id", "valueType": "string", "restrictions": {"regex": "^SP-[0-9]{1,8}$"}}
    ]
  }]
}`

	newEngine := func(maxPatternLength int) *Engine {
		cfg := config.DefaultConfig()
		cfg.Reports.Backend = "memory"
		cfg.Validation.Regex.MaxPatternLength = maxPatternLength
		e, err := New(cfg, Options{})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		return e
	}

	strict := newEngine(4)
	relaxed := newEngine(1024)

	tests := []struct {
		name      string
		engine    *Engine
		wantValid bool
	}{
		{name: "strict engine rejects the pattern", engine: strict, wantValid: false},
		{name: "relaxed engine accepts the pattern", engine: relaxed, wantValid: true},
		{name: "strict engine keeps its limits", engine: strict, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dict, err := parser.ParseBytes([]byte(specimenDictionary))
			if err != nil {
				t.Fatalf("ParseBytes() error = %v", err)
			}
			r, err := tt.engine.ValidateSubmission(context.Background(), Submission{
				Dictionary: dict,
				Schema:     "specimen",
				Records:    []dictionary.UnprocessedDataRecord{{"specimen_id": "SP-42"}},
			})
			if err != nil {
				t.Fatalf("ValidateSubmission() error = %v", err)
			}
			if r.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", r.Valid, tt.wantValid)
			}
		})
	}
}
