package dictionary

import (
	"fmt"
	"strings"
)

// FieldError describes one problem found while decoding a dictionary document.
type FieldError struct {
	// Path is the dotted location in the document (e.g. "schemas[0].fields[2].valueType").
	Path string

	// Message is a human-readable description of the problem.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// DefinitionError collects every problem found in a dictionary document.
type DefinitionError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all definition errors.
func (e *DefinitionError) Error() string {
	if len(e.Errors) == 0 {
		return "invalid dictionary definition"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid dictionary definition: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("invalid dictionary definition with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}
