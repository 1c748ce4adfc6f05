// Package engine runs data submissions through conversion and validation
// and produces validation reports.
//
// The engine ties the dictionary source, the validator, metrics and the
// report store together. A submission goes through these steps:
//
//  1. Look up (or resolve) the dictionary and find the schema
//  2. Convert every raw record to typed values
//  3. Validate the typed records against the schema
//  4. Build a report, record metrics and persist the report
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"lectern-hq/lectern/pkg/config"
	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/dictionary/references"
	"lectern-hq/lectern/pkg/report"
	"lectern-hq/lectern/pkg/telemetry/logging"
	"lectern-hq/lectern/pkg/telemetry/metrics"
	"lectern-hq/lectern/pkg/validation"
	"lectern-hq/lectern/pkg/validation/pattern"
)

// DictionarySource provides resolved dictionaries. An empty version selects
// the latest one.
type DictionarySource interface {
	Get(name, version string) (*dictionary.Dictionary, error)
}

// Submission is one batch of raw records for a schema.
type Submission struct {
	// ID identifies the submission in logs. A UUID is generated when empty.
	ID string

	// Dictionary is resolved and used when set. Otherwise Name and Version
	// are looked up in the engine's source.
	Dictionary *dictionary.Dictionary
	Name       string
	Version    string

	Schema  string
	Records []dictionary.UnprocessedDataRecord
}

// Engine validates submissions.
type Engine struct {
	source    DictionarySource
	validator *validation.Validator
	store     report.Storage
	backend   string
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// Options holds the engine's collaborators. Every field is optional.
type Options struct {
	Source  DictionarySource
	Store   report.Storage
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// New creates an engine from cfg. The engine compiles regex restrictions with
// its own compiler built from cfg's limits.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	patterns, err := NewPatternCompiler(cfg.Validation.Regex, opts.Metrics)
	if err != nil {
		return nil, err
	}

	return &Engine{
		source:    opts.Source,
		validator: validation.NewValidator(cfg.Validation.Workers, patterns, logger),
		store:     opts.Store,
		backend:   cfg.Reports.Backend,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "engine"),
	}, nil
}

// NewPatternCompiler builds a regex compiler with cfg's limits, reporting
// cache lookups to collector.
func NewPatternCompiler(cfg config.RegexConfig, collector *metrics.Collector) (*pattern.Compiler, error) {
	compiler, err := pattern.NewCompiler(pattern.Config{
		MaxPatternLength: cfg.MaxPatternLength,
		MaxProgramSize:   cfg.MaxProgramSize,
		CacheSize:        cfg.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure regex compiler: %w", err)
	}
	if collector != nil {
		compiler.OnCacheLookup(func(hit bool) {
			collector.RecordCacheLookup(metrics.CacheName, hit)
			if !hit {
				collector.UpdateCacheSize(metrics.CacheName, compiler.Len())
			}
		})
	}
	return compiler, nil
}

// ResolveDictionary resolves the references of dict, recording the outcome.
func (e *Engine) ResolveDictionary(dict *dictionary.Dictionary) (*dictionary.Dictionary, error) {
	start := time.Now()
	resolved, err := references.ResolveDictionary(dict)
	duration := time.Since(start)

	if err != nil {
		status := "error"
		var re *references.InvalidReferenceError
		if errors.As(err, &re) {
			status = string(re.Reason)
		}
		e.metrics.RecordResolution(dict.Name, status, duration)
		e.logger.Warn("dictionary resolution failed",
			"dictionary", dict.Name,
			"version", dict.Version,
			"error", err,
		)
		return nil, err
	}

	e.metrics.RecordResolution(dict.Name, "success", duration)
	e.logger.Debug("dictionary resolved",
		"dictionary", dict.Name,
		"version", dict.Version,
		"schemas", len(resolved.Schemas),
		"duration_ms", duration.Milliseconds(),
	)
	return resolved, nil
}

// ValidateSubmission converts and validates the submission's records and
// returns the report. Invalid records produce an invalid report, not an
// error. The report is persisted when the engine has a store.
func (e *Engine) ValidateSubmission(ctx context.Context, sub Submission) (*report.Report, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	dict, err := e.dictionary(sub)
	if err != nil {
		return nil, e.submissionError(sub, err)
	}
	schema, ok := dict.Schema(sub.Schema)
	if !ok {
		return nil, e.submissionError(sub, fmt.Errorf("%w: %q in dictionary %s@%s", ErrSchemaNotFound, sub.Schema, dict.Name, dict.Version))
	}

	ctx = logging.WithSubmissionID(ctx, sub.ID)
	ctx = logging.WithDictionary(ctx, dict.Name)
	ctx = logging.WithSchema(ctx, schema.Name)
	logger := e.logger.With(logging.ContextFields(ctx)...)

	start := time.Now()

	conversion := validation.ConvertSchemaValues(sub.Records, schema)
	e.metrics.RecordConversion(schema.Name, len(sub.Records), len(conversion.Errors))

	result, err := e.validator.ValidateSchema(ctx, conversion.Records, schema)
	if err != nil {
		return nil, e.submissionError(sub, err)
	}
	result = mergeConversionErrors(result, conversion.Errors)

	duration := time.Since(start)
	e.metrics.RecordValidation(schema.Name, result.Valid, len(sub.Records), len(result.Errors), duration)
	for _, re := range result.Errors {
		for _, fe := range re.Errors {
			e.metrics.RecordFieldError(schema.Name, string(fe.Reason))
		}
	}

	r := report.New(dict.Name, dict.Version, result, len(sub.Records))

	logger.Info("submission validated",
		"report_id", r.ID,
		"version", dict.Version,
		"records", r.RecordCount,
		"invalid_records", r.InvalidRecordCount,
		"valid", r.Valid,
		"duration_ms", duration.Milliseconds(),
	)

	if e.store != nil {
		if err := e.store.Store(ctx, r); err != nil {
			e.metrics.RecordReportStored(e.backend, "error")
			logger.Error("failed to store report", "report_id", r.ID, "error", err)
			return nil, e.submissionError(sub, fmt.Errorf("failed to store report: %w", err))
		}
		e.metrics.RecordReportStored(e.backend, "success")
	}
	return r, nil
}

func (e *Engine) dictionary(sub Submission) (*dictionary.Dictionary, error) {
	if sub.Dictionary != nil {
		return e.ResolveDictionary(sub.Dictionary)
	}
	if e.source == nil || sub.Name == "" {
		return nil, ErrNoDictionary
	}
	return e.source.Get(sub.Name, sub.Version)
}

func (e *Engine) submissionError(sub Submission, cause error) error {
	name := sub.Name
	if sub.Dictionary != nil {
		name = sub.Dictionary.Name
	}
	return &SubmissionError{
		SubmissionID: sub.ID,
		Dictionary:   name,
		Schema:       sub.Schema,
		Cause:        cause,
	}
}

// mergeConversionErrors puts conversion errors in front of the validation
// errors of the same record. A validation error repeating a conversion error
// for the same field and reason is dropped.
func mergeConversionErrors(result *validation.SchemaResult, conversion []validation.RecordError) *validation.SchemaResult {
	if len(conversion) == 0 {
		return result
	}

	byIndex := make(map[int][]validation.FieldError, len(result.Errors)+len(conversion))
	for _, re := range conversion {
		byIndex[re.Index] = slices.Clone(re.Errors)
	}
	for _, re := range result.Errors {
		converted := byIndex[re.Index]
		for _, fe := range re.Errors {
			duplicate := slices.ContainsFunc(converted, func(c validation.FieldError) bool {
				return c.Reason == fe.Reason && c.FieldName == fe.FieldName
			})
			if !duplicate {
				byIndex[re.Index] = append(byIndex[re.Index], fe)
			}
		}
	}

	indices := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indices = append(indices, i)
	}
	slices.Sort(indices)

	merged := &validation.SchemaResult{SchemaName: result.SchemaName}
	for _, i := range indices {
		merged.Errors = append(merged.Errors, validation.RecordError{Index: i, Errors: byIndex[i]})
	}
	merged.Valid = len(merged.Errors) == 0
	return merged
}
