package validation

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/validation/pattern"
)

// Validator validates batches of records with a bounded pool of workers.
// Results keep the order of the input records.
type Validator struct {
	workers int
	checker *fieldChecker
	logger  *slog.Logger
}

// NewValidator creates a validator compiling regex restrictions with
// patterns. workers <= 0 uses one worker per CPU and a nil compiler uses
// pattern.Default().
func NewValidator(workers int, patterns *pattern.Compiler, logger *slog.Logger) *Validator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		workers: workers,
		checker: newFieldChecker(patterns),
		logger:  logger.With("component", "validation"),
	}
}

// Workers returns the size of the worker pool.
func (v *Validator) Workers() int {
	return v.workers
}

// ValidateSchema is ValidateSchema run on the worker pool. It stops early and
// returns the context's error when ctx is cancelled.
func (v *Validator) ValidateSchema(ctx context.Context, records []dictionary.DataRecord, schema *dictionary.Schema) (*SchemaResult, error) {
	perRecord, err := v.validateRecords(ctx, records, schema)
	if err != nil {
		return nil, err
	}
	return collectSchemaResult(schema, records, perRecord), nil
}

// ValidateDictionary is ValidateDictionary run on the worker pool.
func (v *Validator) ValidateDictionary(ctx context.Context, data map[string][]dictionary.DataRecord, dict *dictionary.Dictionary) (*DictionaryResult, error) {
	return validateDictionary(data, dict, func(records []dictionary.DataRecord, schema *dictionary.Schema) ([][]FieldError, error) {
		return v.validateRecords(ctx, records, schema)
	})
}

func (v *Validator) validateRecords(ctx context.Context, records []dictionary.DataRecord, schema *dictionary.Schema) ([][]FieldError, error) {
	perRecord := make([][]FieldError, len(records))

	workers := min(v.workers, len(records))
	if workers <= 1 {
		for i, record := range records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			perRecord[i] = v.checker.record(record, schema)
		}
		return perRecord, nil
	}

	v.logger.Debug("validating records",
		"schema", schema.Name,
		"records", len(records),
		"workers", workers,
	)

	indices := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				perRecord[i] = v.checker.record(records[i], schema)
			}
		}()
	}

	var err error
feed:
	for i := range records {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return perRecord, nil
}
