package dictionary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// decoder builds typed dictionary nodes from generic documents.
// It keeps going after a problem so that every error is reported at once.
type decoder struct {
	errors []FieldError
}

func (d *decoder) fail(path, format string, args ...any) {
	d.errors = append(d.errors, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (d *decoder) result() error {
	if len(d.errors) == 0 {
		return nil
	}
	return &DefinitionError{Errors: d.errors}
}

// Decode builds a Dictionary from a generic document such as the output of
// json.Unmarshal or yaml.Unmarshal into map[string]any.
func Decode(doc map[string]any) (*Dictionary, error) {
	d := &decoder{}
	dict := d.dictionary(normalizeMap(doc))
	if err := d.result(); err != nil {
		return nil, err
	}
	return dict, nil
}

// DecodeSchema builds a single Schema from a generic document.
func DecodeSchema(doc map[string]any) (*Schema, error) {
	d := &decoder{}
	schema := d.schema("schema", normalizeMap(doc))
	if err := d.result(); err != nil {
		return nil, err
	}
	return &schema, nil
}

// DecodeRestrictions builds field restrictions from a generic value: one
// restriction object or a list of them.
func DecodeRestrictions(raw any) (FieldRestrictions, error) {
	d := &decoder{}
	restrictions := d.restrictions("restrictions", normalizeValue(raw))
	if err := d.result(); err != nil {
		return nil, err
	}
	return restrictions, nil
}

// UnmarshalJSON decodes a dictionary document.
func (dict *Dictionary) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	decoded, err := Decode(doc)
	if err != nil {
		return err
	}
	*dict = *decoded
	return nil
}

func (d *decoder) dictionary(doc map[string]any) *Dictionary {
	dict := &Dictionary{
		Name:        d.requiredString("name", doc["name"]),
		Version:     d.requiredString("version", doc["version"]),
		Description: d.optionalString("description", doc["description"]),
		Meta:        d.meta("meta", doc["meta"]),
	}

	if raw, ok := doc["references"]; ok && raw != nil {
		refs, ok := raw.(map[string]any)
		if !ok {
			d.fail("references", "must be an object, got %T", raw)
		} else {
			dict.References = References(refs)
		}
	}

	schemas, ok := doc["schemas"].([]any)
	if !ok {
		d.fail("schemas", "must be a list of schemas")
		return dict
	}

	seen := make(map[string]bool, len(schemas))
	for i, raw := range schemas {
		path := fmt.Sprintf("schemas[%d]", i)
		obj, ok := raw.(map[string]any)
		if !ok {
			d.fail(path, "must be an object, got %T", raw)
			continue
		}
		schema := d.schema(path, obj)
		if seen[schema.Name] {
			d.fail(path+".name", "duplicate schema name %q", schema.Name)
		}
		seen[schema.Name] = true
		dict.Schemas = append(dict.Schemas, schema)
	}
	return dict
}

func (d *decoder) schema(path string, doc map[string]any) Schema {
	schema := Schema{
		Name:        d.requiredString(path+".name", doc["name"]),
		Description: d.optionalString(path+".description", doc["description"]),
		Meta:        d.meta(path+".meta", doc["meta"]),
	}

	fields, ok := doc["fields"].([]any)
	if !ok {
		d.fail(path+".fields", "must be a list of fields")
		return schema
	}

	seen := make(map[string]bool, len(fields))
	for i, raw := range fields {
		fieldPath := fmt.Sprintf("%s.fields[%d]", path, i)
		obj, ok := raw.(map[string]any)
		if !ok {
			d.fail(fieldPath, "must be an object, got %T", raw)
			continue
		}
		field := d.field(fieldPath, obj)
		if seen[field.Name] {
			d.fail(fieldPath+".name", "duplicate field name %q", field.Name)
		}
		seen[field.Name] = true
		schema.Fields = append(schema.Fields, field)
	}

	if raw, ok := doc["restrictions"]; ok && raw != nil {
		schema.Restrictions = d.schemaRestrictions(path+".restrictions", raw)
	}
	return schema
}

func (d *decoder) schemaRestrictions(path string, raw any) *SchemaRestrictions {
	obj, ok := raw.(map[string]any)
	if !ok {
		d.fail(path, "must be an object, got %T", raw)
		return nil
	}
	out := &SchemaRestrictions{}
	if uk, ok := obj["uniqueKey"]; ok {
		out.UniqueKey = d.stringList(path+".uniqueKey", uk)
	}
	if fk, ok := obj["foreignKey"]; ok {
		list, ok := fk.([]any)
		if !ok {
			d.fail(path+".foreignKey", "must be a list")
			return out
		}
		for i, item := range list {
			fkPath := fmt.Sprintf("%s.foreignKey[%d]", path, i)
			fkObj, ok := item.(map[string]any)
			if !ok {
				d.fail(fkPath, "must be an object, got %T", item)
				continue
			}
			key := ForeignKey{Schema: d.requiredString(fkPath+".schema", fkObj["schema"])}
			mappings, _ := fkObj["mappings"].([]any)
			if len(mappings) == 0 {
				d.fail(fkPath+".mappings", "must be a non-empty list")
			}
			for j, m := range mappings {
				mPath := fmt.Sprintf("%s.mappings[%d]", fkPath, j)
				mObj, ok := m.(map[string]any)
				if !ok {
					d.fail(mPath, "must be an object, got %T", m)
					continue
				}
				key.Mappings = append(key.Mappings, ForeignKeyMapping{
					Local:   d.requiredString(mPath+".local", mObj["local"]),
					Foreign: d.requiredString(mPath+".foreign", mObj["foreign"]),
				})
			}
			out.ForeignKey = append(out.ForeignKey, key)
		}
	}
	return out
}

func (d *decoder) field(path string, doc map[string]any) SchemaField {
	field := SchemaField{
		Name:        d.requiredString(path+".name", doc["name"]),
		Description: d.optionalString(path+".description", doc["description"]),
		Delimiter:   d.optionalString(path+".delimiter", doc["delimiter"]),
		IsArray:     d.optionalBool(path+".isArray", doc["isArray"]),
		Unique:      d.optionalBool(path+".unique", doc["unique"]),
		Meta:        d.meta(path+".meta", doc["meta"]),
	}

	valueType := ValueType(d.requiredString(path+".valueType", doc["valueType"]))
	if valueType != "" && !valueType.IsValid() {
		d.fail(path+".valueType", "unknown value type %q", valueType)
	}
	field.ValueType = valueType

	if raw, ok := doc["restrictions"]; ok && raw != nil {
		field.Restrictions = d.restrictions(path+".restrictions", raw)
	}
	return field
}

func (d *decoder) restrictions(path string, raw any) FieldRestrictions {
	switch v := raw.(type) {
	case map[string]any:
		if r := d.restriction(path, v); r != nil {
			return FieldRestrictions{r}
		}
		return nil
	case []any:
		out := make(FieldRestrictions, 0, len(v))
		for i, item := range v {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			obj, ok := item.(map[string]any)
			if !ok {
				d.fail(itemPath, "must be an object, got %T", item)
				continue
			}
			if r := d.restriction(itemPath, obj); r != nil {
				out = append(out, r)
			}
		}
		return out
	default:
		d.fail(path, "must be an object or a list of objects, got %T", raw)
		return nil
	}
}

func (d *decoder) restriction(path string, doc map[string]any) Restriction {
	if rawIf, ok := doc["if"]; ok {
		return d.conditional(path, rawIf, doc)
	}

	r := &SimpleRestriction{
		Required: d.optionalBool(path+".required", doc["required"]),
		Empty:    d.optionalBool(path+".empty", doc["empty"]),
		Regex:    d.optionalString(path+".regex", doc["regex"]),
	}
	if raw, ok := doc["codeList"]; ok && raw != nil {
		r.CodeList = d.codeList(path+".codeList", raw)
	}
	if raw, ok := doc["range"]; ok && raw != nil {
		r.Range = d.rangeRule(path+".range", raw)
	}
	return r
}

func (d *decoder) conditional(path string, rawIf any, doc map[string]any) Restriction {
	r := &ConditionalRestriction{}

	ifObj, ok := rawIf.(map[string]any)
	if !ok {
		d.fail(path+".if", "must be an object, got %T", rawIf)
		return nil
	}
	r.If.Case = d.testCase(path+".if.case", ifObj["case"])

	conditions, ok := ifObj["conditions"].([]any)
	if !ok {
		d.fail(path+".if.conditions", "must be a list of conditions")
	}
	for i, raw := range conditions {
		condPath := fmt.Sprintf("%s.if.conditions[%d]", path, i)
		obj, ok := raw.(map[string]any)
		if !ok {
			d.fail(condPath, "must be an object, got %T", raw)
			continue
		}
		r.If.Conditions = append(r.If.Conditions, d.condition(condPath, obj))
	}

	if raw, ok := doc["then"]; ok && raw != nil {
		r.Then = d.restrictions(path+".then", raw)
	}
	if raw, ok := doc["else"]; ok && raw != nil {
		r.Else = d.restrictions(path+".else", raw)
	}
	return r
}

func (d *decoder) condition(path string, doc map[string]any) RestrictionCondition {
	cond := RestrictionCondition{
		Fields: d.stringList(path+".fields", doc["fields"]),
		Case:   d.testCase(path+".case", doc["case"]),
	}
	if len(cond.Fields) == 0 {
		d.fail(path+".fields", "must name at least one field")
	}

	match, ok := doc["match"].(map[string]any)
	if !ok {
		d.fail(path+".match", "must be an object")
		return cond
	}
	cond.Match = d.matchRule(path+".match", match)
	return cond
}

func (d *decoder) matchRule(path string, doc map[string]any) MatchRule {
	rule := MatchRule{
		Value: doc["value"],
		Regex: d.optionalString(path+".regex", doc["regex"]),
	}
	if raw, ok := doc["codeList"]; ok && raw != nil {
		rule.CodeList = d.codeList(path+".codeList", raw)
	}
	if raw, ok := doc["range"]; ok && raw != nil {
		rule.Range = d.rangeRule(path+".range", raw)
	}
	if raw, ok := doc["exists"]; ok && raw != nil {
		b, ok := raw.(bool)
		if !ok {
			d.fail(path+".exists", "must be a boolean, got %T", raw)
		} else {
			rule.Exists = &b
		}
	}
	if raw, ok := doc["count"]; ok && raw != nil {
		rule.Count = d.countRule(path+".count", raw)
	}
	return rule
}

func (d *decoder) countRule(path string, raw any) *CountRule {
	if f, ok := ToFloat64(raw); ok {
		if f < 0 || f != math.Trunc(f) {
			d.fail(path, "must be a non-negative integer, got %v", raw)
			return nil
		}
		n := int(f)
		return &CountRule{Exact: &n}
	}
	if r := d.rangeRule(path, raw); r != nil {
		return &CountRule{Range: r}
	}
	return nil
}

func (d *decoder) codeList(path string, raw any) *CodeList {
	switch v := raw.(type) {
	case string:
		if !IsReferenceTag(v) {
			d.fail(path, "must be a list or a reference tag, got %q", v)
			return nil
		}
		return &CodeList{Reference: v}
	case []any:
		if len(v) == 0 {
			return &CodeList{Strings: []string{}}
		}
		if _, numeric := ToFloat64(v[0]); numeric {
			out := &CodeList{Numbers: make([]float64, 0, len(v))}
			for i, item := range v {
				f, ok := ToFloat64(item)
				if !ok {
					d.fail(fmt.Sprintf("%s[%d]", path, i), "mixed code list types: expected number, got %T", item)
					continue
				}
				out.Numbers = append(out.Numbers, f)
			}
			return out
		}
		out := &CodeList{Strings: make([]string, 0, len(v))}
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				d.fail(fmt.Sprintf("%s[%d]", path, i), "mixed code list types: expected string, got %T", item)
				continue
			}
			out.Strings = append(out.Strings, s)
		}
		return out
	default:
		d.fail(path, "must be a list or a reference tag, got %T", raw)
		return nil
	}
}

func (d *decoder) rangeRule(path string, raw any) *Range {
	obj, ok := raw.(map[string]any)
	if !ok {
		d.fail(path, "must be an object, got %T", raw)
		return nil
	}
	r := &Range{
		Min:          d.optionalNumber(path+".min", obj["min"]),
		Max:          d.optionalNumber(path+".max", obj["max"]),
		ExclusiveMin: d.optionalNumber(path+".exclusiveMin", obj["exclusiveMin"]),
		ExclusiveMax: d.optionalNumber(path+".exclusiveMax", obj["exclusiveMax"]),
	}
	if r.Min == nil && r.Max == nil && r.ExclusiveMin == nil && r.ExclusiveMax == nil {
		d.fail(path, "must set at least one of min, max, exclusiveMin, exclusiveMax")
	}
	return r
}

func (d *decoder) testCase(path string, raw any) ArrayTestCase {
	if raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		d.fail(path, "must be a string, got %T", raw)
		return ""
	}
	c := ArrayTestCase(s)
	if !c.IsValid() {
		d.fail(path, "unknown case %q (expected all, any or none)", s)
		return ""
	}
	return c
}

func (d *decoder) meta(path string, raw any) Meta {
	if raw == nil {
		return nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		d.fail(path, "must be an object, got %T", raw)
		return nil
	}
	return Meta(obj)
}

func (d *decoder) requiredString(path string, raw any) string {
	s, ok := raw.(string)
	if !ok || s == "" {
		d.fail(path, "is required")
		return ""
	}
	return s
}

func (d *decoder) optionalString(path string, raw any) string {
	if raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		d.fail(path, "must be a string, got %T", raw)
		return ""
	}
	return s
}

func (d *decoder) optionalBool(path string, raw any) bool {
	if raw == nil {
		return false
	}
	b, ok := raw.(bool)
	if !ok {
		d.fail(path, "must be a boolean, got %T", raw)
		return false
	}
	return b
}

func (d *decoder) optionalNumber(path string, raw any) *float64 {
	if raw == nil {
		return nil
	}
	f, ok := ToFloat64(raw)
	if !ok {
		d.fail(path, "must be a number, got %T", raw)
		return nil
	}
	return &f
}

func (d *decoder) stringList(path string, raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		d.fail(path, "must be a list of strings")
		return nil
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			d.fail(fmt.Sprintf("%s[%d]", path, i), "must be a string, got %T", item)
			continue
		}
		out = append(out, s)
	}
	return out
}

// normalizeMap converts decoder specific containers into map[string]any,
// []any and float64 so the rest of the package sees one shape.
func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	case json.Number, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		f, _ := ToFloat64(val)
		return f
	default:
		return v
	}
}
