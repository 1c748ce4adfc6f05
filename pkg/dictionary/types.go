package dictionary

import "slices"

// DefaultArrayDelimiter separates the elements of an array field in raw
// (unprocessed) submission values.
const DefaultArrayDelimiter = "|"

// ValueType is the declared type of a schema field's values.
type ValueType string

const (
	ValueTypeBoolean ValueType = "boolean"
	ValueTypeInteger ValueType = "integer"
	ValueTypeNumber  ValueType = "number"
	ValueTypeString  ValueType = "string"
)

// IsValid reports whether the value type is one of the known types.
func (v ValueType) IsValid() bool {
	switch v {
	case ValueTypeBoolean, ValueTypeInteger, ValueTypeNumber, ValueTypeString:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether values of this type are numbers.
func (v ValueType) IsNumeric() bool {
	return v == ValueTypeInteger || v == ValueTypeNumber
}

// References is the nested lookup table addressed by reference tags.
// Leaves are strings or string lists; inner nodes are maps.
type References map[string]any

// Meta holds free-form metadata attached to dictionaries, schemas and fields.
type Meta map[string]any

// Dictionary is a named, versioned collection of schemas.
type Dictionary struct {
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Description string     `json:"description,omitempty"`
	Schemas     []Schema   `json:"schemas"`
	References  References `json:"references,omitempty"`
	Meta        Meta       `json:"meta,omitempty"`
}

// Schema returns the schema with the given name.
func (d *Dictionary) Schema(name string) (*Schema, bool) {
	for i := range d.Schemas {
		if d.Schemas[i].Name == name {
			return &d.Schemas[i], true
		}
	}
	return nil, false
}

// SchemaNames returns the schema names in declaration order.
func (d *Dictionary) SchemaNames() []string {
	names := make([]string, 0, len(d.Schemas))
	for _, s := range d.Schemas {
		names = append(names, s.Name)
	}
	return names
}

// Schema describes one table of records.
type Schema struct {
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Fields       []SchemaField       `json:"fields"`
	Restrictions *SchemaRestrictions `json:"restrictions,omitempty"`
	Meta         Meta                `json:"meta,omitempty"`
}

// Field returns the field with the given name.
func (s *Schema) Field(name string) (*SchemaField, bool) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// FieldNames returns the field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// SchemaRestrictions are the structural, multi-record restrictions of a schema.
type SchemaRestrictions struct {
	UniqueKey  []string     `json:"uniqueKey,omitempty"`
	ForeignKey []ForeignKey `json:"foreignKey,omitempty"`
}

// Clone returns a deep copy.
func (r *SchemaRestrictions) Clone() *SchemaRestrictions {
	if r == nil {
		return nil
	}
	out := &SchemaRestrictions{UniqueKey: slices.Clone(r.UniqueKey)}
	for _, fk := range r.ForeignKey {
		out.ForeignKey = append(out.ForeignKey, ForeignKey{
			Schema:   fk.Schema,
			Mappings: slices.Clone(fk.Mappings),
		})
	}
	return out
}

// ForeignKey requires that values of local fields exist in a foreign schema.
type ForeignKey struct {
	Schema   string              `json:"schema"`
	Mappings []ForeignKeyMapping `json:"mappings"`
}

// ForeignKeyMapping pairs a local field with the foreign field it references.
type ForeignKeyMapping struct {
	Local   string `json:"local"`
	Foreign string `json:"foreign"`
}

// SchemaField defines one column of a schema.
type SchemaField struct {
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	ValueType    ValueType         `json:"valueType"`
	IsArray      bool              `json:"isArray,omitempty"`
	Delimiter    string            `json:"delimiter,omitempty"`
	Unique       bool              `json:"unique,omitempty"`
	Restrictions FieldRestrictions `json:"restrictions,omitempty"`
	Meta         Meta              `json:"meta,omitempty"`
}

// ArrayDelimiter returns the delimiter used to split raw array values.
func (f *SchemaField) ArrayDelimiter() string {
	if f.Delimiter != "" {
		return f.Delimiter
	}
	return DefaultArrayDelimiter
}

// Examples returns the field's meta.examples rendered as strings, if any.
func (f *SchemaField) Examples() []string {
	raw, ok := f.Meta["examples"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
