package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDictionary is returned when a submission names no dictionary and
	// the engine has no source to look one up.
	ErrNoDictionary = errors.New("no dictionary for submission")

	// ErrSchemaNotFound is returned when the dictionary has no schema of the
	// submitted name.
	ErrSchemaNotFound = errors.New("schema not found")
)

// SubmissionError reports a submission that could not be validated at all.
// Invalid records are not errors; they are recorded in the report.
type SubmissionError struct {
	SubmissionID string
	Dictionary   string
	Schema       string
	Cause        error
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission %s (dictionary=%s, schema=%s): %v", e.SubmissionID, e.Dictionary, e.Schema, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *SubmissionError) Unwrap() error {
	return e.Cause
}
