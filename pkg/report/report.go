// Package report defines validation reports and the interface of the stores
// that keep them.
//
// A Report summarizes one validation run of a submission against a schema
// of a dictionary version. Stores live in pkg/report/storage and retention
// in pkg/report/retention.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lectern-hq/lectern/pkg/validation"
)

// Report is the persisted outcome of validating one submission.
type Report struct {
	// ID uniquely identifies the report (UUID v4).
	ID string `json:"id"`

	Dictionary string `json:"dictionary"`
	Version    string `json:"version"`
	Schema     string `json:"schema"`

	CreatedAt time.Time `json:"created_at"`

	RecordCount        int  `json:"record_count"`
	InvalidRecordCount int  `json:"invalid_record_count"`
	Valid              bool `json:"valid"`

	// Errors lists the failing records with their field errors, in record
	// order.
	Errors []validation.RecordError `json:"errors,omitempty"`
}

// New creates a report with a fresh ID and creation time from a schema
// result.
func New(dictionary, version string, result *validation.SchemaResult, records int) *Report {
	return &Report{
		ID:                 uuid.NewString(),
		Dictionary:         dictionary,
		Version:            version,
		Schema:             result.SchemaName,
		CreatedAt:          time.Now().UTC(),
		RecordCount:        records,
		InvalidRecordCount: len(result.Errors),
		Valid:              result.Valid,
		Errors:             result.Errors,
	}
}

// FieldErrorCount returns the total number of field errors in the report.
func (r *Report) FieldErrorCount() int {
	n := 0
	for _, re := range r.Errors {
		n += len(re.Errors)
	}
	return n
}

// Storage defines the interface for report storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a report. Storing an ID twice fails.
	Store(ctx context.Context, report *Report) error

	// Get returns the report with the given ID or ErrReportNotFound.
	Get(ctx context.Context, id string) (*Report, error)

	// Query returns reports matching the filters, ordered by creation time.
	// Returns an empty slice if no reports match.
	Query(ctx context.Context, query *Query) ([]*Report, error)

	// Count returns the number of reports matching the filters. Pagination
	// is ignored.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes reports matching the filters and returns how many were
	// removed. Pagination is ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}
