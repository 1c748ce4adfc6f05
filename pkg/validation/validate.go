// Package validation checks typed data records against resolved schemas.
//
// Validation runs at three levels. ValidateField type-checks one value and
// tests it against the rules its restrictions resolve to for the record.
// ValidateRecord does that for every schema field and reports fields the
// schema does not define. ValidateSchema and ValidateDictionary add the
// checks that span records: unique fields, unique keys and foreign keys.
//
// The package also converts raw string records to typed records
// (ConvertFieldValue and friends). Failures at every level are returned as
// data, never as Go errors.
package validation

import (
	"math"
	"slices"
	"strings"

	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/validation/match"
	"lectern-hq/lectern/pkg/validation/pattern"
	"lectern-hq/lectern/pkg/validation/restrictions"
	"lectern-hq/lectern/pkg/validation/rules"
)

// fieldChecker resolves and tests restrictions with one pattern compiler.
type fieldChecker struct {
	resolver *restrictions.Resolver
	tester   *rules.Tester
}

func newFieldChecker(patterns *pattern.Compiler) *fieldChecker {
	if patterns == nil {
		patterns = pattern.Default()
	}
	return &fieldChecker{
		resolver: restrictions.NewResolver(match.NewMatcher(patterns)),
		tester:   rules.NewTester(patterns),
	}
}

var defaultChecker = newFieldChecker(nil)

// ValidateField validates value, the record's value for field. It returns nil
// when the value is valid.
//
// A defined value of the wrong type fails with INVALID_VALUE_TYPE and no rule
// is tested. Otherwise every rule the field's restrictions resolve to is
// tested and all failures are collected into one INVALID_BY_RESTRICTION error.
func ValidateField(value dictionary.DataValue, record dictionary.DataRecord, field *dictionary.SchemaField) *FieldError {
	return defaultChecker.field(value, record, field)
}

func (c *fieldChecker) field(value dictionary.DataValue, record dictionary.DataRecord, field *dictionary.SchemaField) *FieldError {
	if value != nil && !MatchesValueType(value, field) {
		err := typeError(field, value)
		return &err
	}

	var failures []RestrictionFailure
	for _, rule := range c.resolver.Resolve(record, field) {
		result := c.tester.Test(rule, value)
		if result.Valid {
			continue
		}
		message := result.Message
		if rule.Type == restrictions.RuleRegex {
			if examples := field.Examples(); len(examples) > 0 {
				message += " Examples: " + strings.Join(examples, ", ")
			}
		}
		failures = append(failures, RestrictionFailure{
			Rule:         rule,
			Message:      message,
			InvalidItems: result.InvalidItems,
		})
	}
	if len(failures) == 0 {
		return nil
	}

	messages := make([]string, len(failures))
	for i, f := range failures {
		messages[i] = f.Message
	}
	return &FieldError{
		Reason:    ReasonInvalidByRestriction,
		FieldName: field.Name,
		Value:     value,
		Message:   strings.Join(messages, " "),
		Failures:  failures,
	}
}

// MatchesValueType reports whether a defined value has the shape and type the
// field declares.
func MatchesValueType(value dictionary.DataValue, field *dictionary.SchemaField) bool {
	items, isArray := dictionary.AsSlice(value)
	if isArray != field.IsArray {
		return false
	}
	if !isArray {
		return scalarMatchesType(value, field.ValueType)
	}
	for _, item := range items {
		if !scalarMatchesType(item, field.ValueType) {
			return false
		}
	}
	return true
}

func scalarMatchesType(v any, valueType dictionary.ValueType) bool {
	switch valueType {
	case dictionary.ValueTypeString:
		_, ok := v.(string)
		return ok
	case dictionary.ValueTypeBoolean:
		_, ok := v.(bool)
		return ok
	case dictionary.ValueTypeNumber:
		return dictionary.IsFiniteNumber(v)
	case dictionary.ValueTypeInteger:
		f, ok := dictionary.ToFloat64(v)
		return ok && dictionary.IsFiniteNumber(v) && f == math.Trunc(f)
	default:
		return false
	}
}

// ValidateRecord validates every field of schema against record, after
// reporting the record's fields that the schema does not define. A field
// missing from the record is validated as undefined.
func ValidateRecord(record dictionary.DataRecord, schema *dictionary.Schema) []FieldError {
	return defaultChecker.record(record, schema)
}

func (c *fieldChecker) record(record dictionary.DataRecord, schema *dictionary.Schema) []FieldError {
	var errs []FieldError

	for _, name := range sortedKeys(record) {
		if _, ok := schema.Field(name); !ok {
			errs = append(errs, unrecognizedField(name, record[name]))
		}
	}

	for i := range schema.Fields {
		field := &schema.Fields[i]
		if err := c.field(record[field.Name], record, field); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

// ValidateSchema validates records against schema, including its unique
// fields and unique key.
func ValidateSchema(records []dictionary.DataRecord, schema *dictionary.Schema) *SchemaResult {
	return collectSchemaResult(schema, records, defaultChecker.records(records, schema))
}

func (c *fieldChecker) records(records []dictionary.DataRecord, schema *dictionary.Schema) [][]FieldError {
	perRecord := make([][]FieldError, len(records))
	for i, record := range records {
		perRecord[i] = c.record(record, schema)
	}
	return perRecord
}

func collectSchemaResult(schema *dictionary.Schema, records []dictionary.DataRecord, perRecord [][]FieldError) *SchemaResult {
	for i := range schema.Fields {
		if schema.Fields[i].Unique {
			addUniqueErrors(perRecord, records, &schema.Fields[i])
		}
	}
	if schema.Restrictions != nil && len(schema.Restrictions.UniqueKey) > 0 {
		addUniqueKeyErrors(perRecord, records, schema.Restrictions.UniqueKey)
	}

	result := &SchemaResult{SchemaName: schema.Name}
	for i, errs := range perRecord {
		if len(errs) > 0 {
			result.Errors = append(result.Errors, RecordError{Index: i, Errors: errs})
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// addUniqueErrors flags every record sharing a defined value of a unique field.
func addUniqueErrors(perRecord [][]FieldError, records []dictionary.DataRecord, field *dictionary.SchemaField) {
	groups := make(map[string][]int)
	var order []string
	for i, record := range records {
		v := record[field.Name]
		if v == nil {
			continue
		}
		key := valueKey(v)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	for _, key := range order {
		indices := groups[key]
		if len(indices) < 2 {
			continue
		}
		for _, i := range indices {
			perRecord[i] = append(perRecord[i], FieldError{
				Reason:    ReasonInvalidByUnique,
				FieldName: field.Name,
				Value:     records[i][field.Name],
				Message:   "Value must be unique.",
				Matches:   others(indices, i),
			})
		}
	}
}

// addUniqueKeyErrors flags every record sharing the combined values of the
// unique key fields. Records without any key value are ignored.
func addUniqueKeyErrors(perRecord [][]FieldError, records []dictionary.DataRecord, fields []string) {
	groups := make(map[string][]int)
	var order []string
	for i, record := range records {
		key, ok := compositeKey(record, fields)
		if !ok {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	for _, key := range order {
		indices := groups[key]
		if len(indices) < 2 {
			continue
		}
		for _, i := range indices {
			perRecord[i] = append(perRecord[i], FieldError{
				Reason:    ReasonInvalidByUniqueKey,
				FieldName: fields[0],
				Value:     keyValues(records[i], fields),
				Message:   "Key " + strings.Join(fields, ", ") + " must be unique.",
				Fields:    slices.Clone(fields),
				Matches:   others(indices, i),
			})
		}
	}
}

// ValidateDictionary validates the records of each schema named in data, then
// checks foreign keys between schemas. Data for schemas the dictionary does
// not define is reported as UNRECOGNIZED_SCHEMA.
func ValidateDictionary(data map[string][]dictionary.DataRecord, dict *dictionary.Dictionary) *DictionaryResult {
	result, _ := validateDictionary(data, dict, func(records []dictionary.DataRecord, schema *dictionary.Schema) ([][]FieldError, error) {
		return defaultChecker.records(records, schema), nil
	})
	return result
}

type recordsFunc func(records []dictionary.DataRecord, schema *dictionary.Schema) ([][]FieldError, error)

func validateDictionary(data map[string][]dictionary.DataRecord, dict *dictionary.Dictionary, validate recordsFunc) (*DictionaryResult, error) {
	result := &DictionaryResult{Schemas: make(map[string]*SchemaResult, len(data))}

	for _, name := range sortedKeys(data) {
		if _, ok := dict.Schema(name); !ok {
			result.Errors = append(result.Errors, SchemaError{
				Reason:     ReasonUnrecognizedSchema,
				SchemaName: name,
				Message:    "Schema is not defined in the dictionary.",
			})
		}
	}

	for i := range dict.Schemas {
		schema := &dict.Schemas[i]
		records, ok := data[schema.Name]
		if !ok {
			continue
		}
		perRecord, err := validate(records, schema)
		if err != nil {
			return nil, err
		}
		addForeignKeyErrors(perRecord, records, schema, data)
		result.Schemas[schema.Name] = collectSchemaResult(schema, records, perRecord)
	}

	result.Valid = len(result.Errors) == 0
	for _, sr := range result.Schemas {
		if !sr.Valid {
			result.Valid = false
		}
	}
	return result, nil
}

// addForeignKeyErrors flags records whose local key values have no matching
// record in the foreign schema. Records without any local value are ignored.
func addForeignKeyErrors(perRecord [][]FieldError, records []dictionary.DataRecord, schema *dictionary.Schema, data map[string][]dictionary.DataRecord) {
	if schema.Restrictions == nil {
		return
	}
	for _, fk := range schema.Restrictions.ForeignKey {
		locals := make([]string, len(fk.Mappings))
		foreigns := make([]string, len(fk.Mappings))
		for i, m := range fk.Mappings {
			locals[i] = m.Local
			foreigns[i] = m.Foreign
		}

		known := make(map[string]bool)
		for _, record := range data[fk.Schema] {
			if key, ok := compositeKey(record, foreigns); ok {
				known[key] = true
			}
		}

		for i, record := range records {
			key, ok := compositeKey(record, locals)
			if !ok || known[key] {
				continue
			}
			perRecord[i] = append(perRecord[i], FieldError{
				Reason:        ReasonInvalidByForeignKey,
				FieldName:     locals[0],
				Value:         keyValues(record, locals),
				Message:       "Record " + strings.Join(locals, ", ") + " must match a record in schema " + fk.Schema + ".",
				Fields:        locals,
				ForeignSchema: fk.Schema,
			})
		}
	}
}

// valueKey renders a value so that equal values of the same kind produce
// equal keys. Numbers compare across integer and float representations.
func valueKey(v dictionary.DataValue) string {
	if items, ok := dictionary.AsSlice(v); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = valueKey(item)
		}
		return "[" + strings.Join(parts, "\x1f") + "]"
	}
	if s, ok := v.(string); ok {
		return "s:" + s
	}
	if f, ok := dictionary.ToFloat64(v); ok {
		return "n:" + dictionary.FormatValue(f)
	}
	return "v:" + dictionary.FormatValue(v)
}

// compositeKey joins the value keys of fields. ok is false when the record
// has none of the fields.
func compositeKey(record dictionary.DataRecord, fields []string) (string, bool) {
	parts := make([]string, len(fields))
	present := false
	for i, name := range fields {
		v := record[name]
		if v != nil {
			present = true
			parts[i] = valueKey(v)
		}
	}
	return strings.Join(parts, "\x1e"), present
}

func keyValues(record dictionary.DataRecord, fields []string) map[string]dictionary.DataValue {
	out := make(map[string]dictionary.DataValue, len(fields))
	for _, name := range fields {
		out[name] = record[name]
	}
	return out
}

func others(indices []int, self int) []int {
	out := make([]int, 0, len(indices)-1)
	for _, i := range indices {
		if i != self {
			out = append(out, i)
		}
	}
	return out
}
