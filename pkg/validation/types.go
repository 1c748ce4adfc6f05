package validation

import (
	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/validation/restrictions"
	"lectern-hq/lectern/pkg/validation/rules"
)

// ErrorReason classifies a validation or conversion error.
type ErrorReason string

const (
	// ReasonInvalidValueType means the value does not have the field's declared type.
	ReasonInvalidValueType ErrorReason = "INVALID_VALUE_TYPE"

	// ReasonInvalidByRestriction means the value fails one or more restriction rules.
	ReasonInvalidByRestriction ErrorReason = "INVALID_BY_RESTRICTION"

	// ReasonUnrecognizedField means the record has a field the schema does not define.
	ReasonUnrecognizedField ErrorReason = "UNRECOGNIZED_FIELD"

	// ReasonInvalidByUnique means another record has the same value for a unique field.
	ReasonInvalidByUnique ErrorReason = "INVALID_BY_UNIQUE"

	// ReasonInvalidByUniqueKey means another record has the same unique key.
	ReasonInvalidByUniqueKey ErrorReason = "INVALID_BY_UNIQUEKEY"

	// ReasonInvalidByForeignKey means no record of the foreign schema has the
	// referenced values.
	ReasonInvalidByForeignKey ErrorReason = "INVALID_BY_FOREIGNKEY"

	// ReasonUnrecognizedSchema means data was submitted for a schema the
	// dictionary does not define.
	ReasonUnrecognizedSchema ErrorReason = "UNRECOGNIZED_SCHEMA"
)

// RestrictionFailure is one failed rule of an INVALID_BY_RESTRICTION error.
type RestrictionFailure struct {
	Rule         restrictions.Rule   `json:"rule"`
	Message      string              `json:"message"`
	InvalidItems []rules.InvalidItem `json:"invalid_items,omitempty"`
}

// FieldError describes one invalid field of one record.
type FieldError struct {
	Reason    ErrorReason          `json:"reason"`
	FieldName string               `json:"field_name"`
	Value     dictionary.DataValue `json:"value,omitempty"`
	Message   string               `json:"message"`

	// Type errors
	ValueType dictionary.ValueType `json:"value_type,omitempty"`
	IsArray   bool                 `json:"is_array,omitempty"`

	// Restriction errors
	Failures []RestrictionFailure `json:"failures,omitempty"`

	// Unique, unique key and foreign key errors
	Fields        []string `json:"fields,omitempty"`
	ForeignSchema string   `json:"foreign_schema,omitempty"`
	Matches       []int    `json:"matches,omitempty"`
}

// RecordError groups the errors of one record, identified by its position
// in the submitted data.
type RecordError struct {
	Index  int          `json:"index"`
	Errors []FieldError `json:"errors"`
}

// SchemaError reports a problem with a whole schema's data.
type SchemaError struct {
	Reason     ErrorReason `json:"reason"`
	SchemaName string      `json:"schema_name"`
	Message    string      `json:"message"`
}

// SchemaResult is the outcome of validating the records of one schema.
type SchemaResult struct {
	SchemaName string        `json:"schema_name"`
	Valid      bool          `json:"valid"`
	Errors     []RecordError `json:"errors,omitempty"`
}

// DictionaryResult is the outcome of validating data for several schemas.
type DictionaryResult struct {
	Valid   bool                     `json:"valid"`
	Schemas map[string]*SchemaResult `json:"schemas"`
	Errors  []SchemaError            `json:"errors,omitempty"`
}
