package manager

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDictionaryNotFound is returned when no registered dictionary matches a lookup.
var ErrDictionaryNotFound = errors.New("dictionary not found")

// LoadError represents a dictionary document that could not be read, parsed
// or resolved.
type LoadError struct {
	// FilePath is the path to the document that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load dictionary file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load dictionary file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// RegistryError represents a conflict while registering dictionaries.
type RegistryError struct {
	Name      string
	Version   string
	Operation string
	Message   string
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry %s failed for dictionary %s@%s: %s", e.Operation, e.Name, e.Version, e.Message)
}

// ErrorList collects the errors of one load.
type ErrorList struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap returns the collected errors for errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.Errors
}

// Add appends err if it is not nil.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors reports whether any error was collected.
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil when empty and the list otherwise.
func (e *ErrorList) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}
