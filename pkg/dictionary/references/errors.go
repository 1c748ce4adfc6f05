package references

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidReference matches every InvalidReferenceError via errors.Is.
var ErrInvalidReference = errors.New("invalid reference")

// Reason classifies why a reference tag could not be resolved.
type Reason string

const (
	// ReasonNotFound means the tag path has no entry in references.
	ReasonNotFound Reason = "not_found"

	// ReasonNestedObject means the tag points at an object instead of a leaf.
	ReasonNestedObject Reason = "nested_object"

	// ReasonCyclic means the tag takes part in a reference cycle.
	ReasonCyclic Reason = "cyclic"

	// ReasonInvalidValue means the tag points at a leaf that is neither a
	// string nor a list of strings.
	ReasonInvalidValue Reason = "invalid_value"

	// ReasonAmbiguousPattern means a regex tag resolved to more than one string.
	ReasonAmbiguousPattern Reason = "ambiguous_pattern"
)

// InvalidReferenceError reports a reference tag that could not be resolved.
// Any such error aborts the whole resolution.
type InvalidReferenceError struct {
	// Tag is the offending tag. For cycles it is the tag that closes the loop.
	Tag string

	// Reason classifies the failure.
	Reason Reason

	// Cycle lists the tags of a cycle in resolution order, ending with Tag.
	Cycle []string

	// Location is the dotted path of the dictionary node holding the tag.
	Location string
}

// Error returns the error message.
func (e *InvalidReferenceError) Error() string {
	var msg string
	switch e.Reason {
	case ReasonNotFound:
		msg = fmt.Sprintf("reference %q not found", e.Tag)
	case ReasonNestedObject:
		msg = fmt.Sprintf("reference %q points to an object, not a value", e.Tag)
	case ReasonCyclic:
		msg = fmt.Sprintf("cyclical reference %q", e.Tag)
		if len(e.Cycle) > 1 {
			msg += fmt.Sprintf(" (%s)", strings.Join(e.Cycle, " -> "))
		}
	case ReasonInvalidValue:
		msg = fmt.Sprintf("reference %q must resolve to a string or a list of strings", e.Tag)
	case ReasonAmbiguousPattern:
		msg = fmt.Sprintf("reference %q used as a regex must resolve to exactly one string", e.Tag)
	default:
		msg = fmt.Sprintf("invalid reference %q", e.Tag)
	}
	if e.Location != "" {
		return fmt.Sprintf("%s at %s", msg, e.Location)
	}
	return msg
}

// Is reports whether target is ErrInvalidReference.
func (e *InvalidReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}
