package validation

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/validation/restrictions"
)

// ConversionError reports a raw value that cannot be converted to the
// field's declared type.
type ConversionError struct {
	FieldName string
	Value     string
	ValueType dictionary.ValueType
	IsArray   bool
}

// Error returns the error message.
func (e *ConversionError) Error() string {
	if e.IsArray {
		return fmt.Sprintf("field %q: value %q is not an array of %s values", e.FieldName, e.Value, e.ValueType)
	}
	return fmt.Sprintf("field %q: value %q is not a valid %s", e.FieldName, e.Value, e.ValueType)
}

// ConvertFieldValue converts a raw string to the typed value of field.
//
// The raw value is trimmed first and an empty result converts to nil. Array
// fields are split on the field's delimiter and every element must convert,
// otherwise the whole value fails. String values equal to a code list option
// of the field take the option's exact spelling.
func ConvertFieldValue(raw string, field *dictionary.SchemaField) (dictionary.DataValue, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	fail := &ConversionError{
		FieldName: field.Name,
		Value:     raw,
		ValueType: field.ValueType,
		IsArray:   field.IsArray,
	}

	var options []string
	if field.ValueType == dictionary.ValueTypeString {
		options = restrictions.CodeListOptions(field.Restrictions)
	}

	if !field.IsArray {
		v, ok := convertScalar(trimmed, field.ValueType, options)
		if !ok {
			return nil, fail
		}
		return v, nil
	}

	parts := strings.Split(trimmed, field.ArrayDelimiter())
	switch field.ValueType {
	case dictionary.ValueTypeString:
		out := make([]string, len(parts))
		for i, p := range parts {
			v, ok := convertScalar(strings.TrimSpace(p), field.ValueType, options)
			if !ok {
				return nil, fail
			}
			out[i] = v.(string)
		}
		return out, nil
	case dictionary.ValueTypeBoolean:
		out := make([]bool, len(parts))
		for i, p := range parts {
			v, ok := convertScalar(strings.TrimSpace(p), field.ValueType, nil)
			if !ok {
				return nil, fail
			}
			out[i] = v.(bool)
		}
		return out, nil
	case dictionary.ValueTypeInteger:
		out := make([]int64, len(parts))
		for i, p := range parts {
			v, ok := convertScalar(strings.TrimSpace(p), field.ValueType, nil)
			if !ok {
				return nil, fail
			}
			out[i] = v.(int64)
		}
		return out, nil
	case dictionary.ValueTypeNumber:
		out := make([]float64, len(parts))
		for i, p := range parts {
			v, ok := convertScalar(strings.TrimSpace(p), field.ValueType, nil)
			if !ok {
				return nil, fail
			}
			out[i] = v.(float64)
		}
		return out, nil
	default:
		return nil, fail
	}
}

// convertScalar converts one trimmed value. Empty values fail here; callers
// handle absence before splitting.
func convertScalar(s string, valueType dictionary.ValueType, options []string) (dictionary.DataValue, bool) {
	if s == "" {
		return nil, false
	}
	switch valueType {
	case dictionary.ValueTypeBoolean:
		switch strings.ToLower(s) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return nil, false
	case dictionary.ValueTypeNumber:
		f, ok := parseFinite(s)
		if !ok {
			return nil, false
		}
		return f, true
	case dictionary.ValueTypeInteger:
		f, ok := parseFinite(s)
		if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, false
		}
		return int64(f), true
	case dictionary.ValueTypeString:
		return matchCodeListFormatting(s, options), true
	default:
		return nil, false
	}
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// matchCodeListFormatting returns the first option equal to s when both are
// trimmed and lowercased, or s itself.
func matchCodeListFormatting(s string, options []string) string {
	needle := strings.ToLower(s)
	for _, option := range options {
		if strings.ToLower(strings.TrimSpace(option)) == needle {
			return option
		}
	}
	return s
}

// RecordConversion is the outcome of converting one raw record.
type RecordConversion struct {
	Record dictionary.DataRecord `json:"record"`
	Errors []FieldError          `json:"errors,omitempty"`
}

// ConvertRecordValues converts every field of a raw record. A field that
// fails keeps its original string and is reported as INVALID_VALUE_TYPE.
// Fields the schema does not define are kept unconverted and reported as
// UNRECOGNIZED_FIELD.
func ConvertRecordValues(raw dictionary.UnprocessedDataRecord, schema *dictionary.Schema) RecordConversion {
	out := RecordConversion{Record: make(dictionary.DataRecord, len(raw))}

	for _, name := range sortedKeys(raw) {
		value := raw[name]
		field, ok := schema.Field(name)
		if !ok {
			out.Record[name] = value
			out.Errors = append(out.Errors, unrecognizedField(name, value))
			continue
		}

		converted, err := ConvertFieldValue(value, field)
		if err != nil {
			out.Record[name] = value
			out.Errors = append(out.Errors, typeError(field, value))
			continue
		}
		if converted != nil {
			out.Record[name] = converted
		}
	}
	return out
}

// SchemaConversion is the outcome of converting the raw records of one schema.
type SchemaConversion struct {
	Records []dictionary.DataRecord `json:"records"`
	Errors  []RecordError           `json:"errors,omitempty"`
}

// ConvertSchemaValues converts every record. Records keep their positions.
func ConvertSchemaValues(raw []dictionary.UnprocessedDataRecord, schema *dictionary.Schema) SchemaConversion {
	out := SchemaConversion{Records: make([]dictionary.DataRecord, 0, len(raw))}
	for i, record := range raw {
		rc := ConvertRecordValues(record, schema)
		out.Records = append(out.Records, rc.Record)
		if len(rc.Errors) > 0 {
			out.Errors = append(out.Errors, RecordError{Index: i, Errors: rc.Errors})
		}
	}
	return out
}

// DictionaryConversion is the outcome of converting data for several schemas.
type DictionaryConversion struct {
	Schemas             map[string]SchemaConversion `json:"schemas"`
	UnrecognizedSchemas []string                    `json:"unrecognized_schemas,omitempty"`
}

// ConvertDictionaryValues converts the raw records of each schema named in
// data. Schema names the dictionary does not define are listed in
// UnrecognizedSchemas and their records are left out.
func ConvertDictionaryValues(data map[string][]dictionary.UnprocessedDataRecord, dict *dictionary.Dictionary) DictionaryConversion {
	out := DictionaryConversion{Schemas: make(map[string]SchemaConversion, len(data))}
	for _, name := range sortedKeys(data) {
		schema, ok := dict.Schema(name)
		if !ok {
			out.UnrecognizedSchemas = append(out.UnrecognizedSchemas, name)
			continue
		}
		out.Schemas[name] = ConvertSchemaValues(data[name], schema)
	}
	return out
}

func unrecognizedField(name string, value dictionary.DataValue) FieldError {
	return FieldError{
		Reason:    ReasonUnrecognizedField,
		FieldName: name,
		Value:     value,
		Message:   "Field is not defined in the schema.",
	}
}

func typeError(field *dictionary.SchemaField, value dictionary.DataValue) FieldError {
	message := fmt.Sprintf("The value is not a valid %s.", field.ValueType)
	if field.IsArray {
		message = fmt.Sprintf("The value must be a list of %s values separated by %q.", field.ValueType, field.ArrayDelimiter())
	}
	return FieldError{
		Reason:    ReasonInvalidValueType,
		FieldName: field.Name,
		Value:     value,
		Message:   message,
		ValueType: field.ValueType,
		IsArray:   field.IsArray,
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
