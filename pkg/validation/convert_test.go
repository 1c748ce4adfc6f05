package validation

import (
	"errors"
	"reflect"
	"testing"

	"lectern-hq/lectern/pkg/dictionary"
)

func TestConvertFieldValue(t *testing.T) {
	sexField := &dictionary.SchemaField{
		Name:      "sex",
		ValueType: dictionary.ValueTypeString,
		Restrictions: dictionary.FieldRestrictions{
			&dictionary.SimpleRestriction{CodeList: &dictionary.CodeList{Strings: []string{"Male", "Female"}}},
		},
	}

	tests := []struct {
		name    string
		raw     string
		field   *dictionary.SchemaField
		want    any
		wantErr bool
	}{
		{name: "empty string", raw: "", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeNumber}, want: nil},
		{name: "blank integer", raw: "   ", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeInteger}, want: nil},
		{name: "empty array", raw: "", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeString, IsArray: true}, want: nil},
		{name: "number", raw: "3.14", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeNumber}, want: 3.14},
		{name: "number trimmed", raw: " 2 ", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeNumber}, want: 2.0},
		{name: "NaN", raw: "NaN", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeNumber}, wantErr: true},
		{name: "Infinity", raw: "Infinity", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeNumber}, wantErr: true},
		{name: "integer", raw: "42", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeInteger}, want: int64(42)},
		{name: "integer exponent", raw: "1e3", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeInteger}, want: int64(1000)},
		{name: "integer fraction", raw: "4.5", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeInteger}, wantErr: true},
		{name: "boolean mixed case", raw: "TRUE", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeBoolean}, want: true},
		{name: "boolean false", raw: "false", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeBoolean}, want: false},
		{name: "boolean yes", raw: "yes", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeBoolean}, wantErr: true},
		{name: "string", raw: " hello ", field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeString}, want: "hello"},
		{
			name:  "string array",
			raw:   "a|b|c",
			field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeString, IsArray: true},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "custom delimiter",
			raw:   "1; 2",
			field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeInteger, IsArray: true, Delimiter: ";"},
			want:  []int64{1, 2},
		},
		{
			name:    "array with bad element",
			raw:     "1|x|3",
			field:   &dictionary.SchemaField{ValueType: dictionary.ValueTypeNumber, IsArray: true},
			wantErr: true,
		},
		{
			name:    "array with empty number element",
			raw:     "1||3",
			field:   &dictionary.SchemaField{ValueType: dictionary.ValueTypeNumber, IsArray: true},
			wantErr: true,
		},
		{
			name:    "string array with empty element",
			raw:     "a||b",
			field:   &dictionary.SchemaField{ValueType: dictionary.ValueTypeString, IsArray: true},
			wantErr: true,
		},
		{
			name:    "string array with trailing delimiter",
			raw:     "a|",
			field:   &dictionary.SchemaField{ValueType: dictionary.ValueTypeString, IsArray: true},
			wantErr: true,
		},
		{
			name:    "string array with blank element",
			raw:     "a| |b",
			field:   &dictionary.SchemaField{ValueType: dictionary.ValueTypeString, IsArray: true},
			wantErr: true,
		},
		{name: "code list casing", raw: "female", field: sexField, want: "Female"},
		{
			name:  "code list casing in arrays",
			raw:   "male|FEMALE|other",
			field: &dictionary.SchemaField{ValueType: dictionary.ValueTypeString, IsArray: true, Restrictions: sexField.Restrictions},
			want:  []string{"Male", "Female", "other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertFieldValue(tt.raw, tt.field)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ConvertFieldValue(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				var convErr *ConversionError
				if !errors.As(err, &convErr) {
					t.Errorf("error type = %T, want *ConversionError", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ConvertFieldValue(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func donorSchema() *dictionary.Schema {
	return &dictionary.Schema{
		Name: "donor",
		Fields: []dictionary.SchemaField{
			{Name: "donor_id", ValueType: dictionary.ValueTypeString},
			{Name: "age", ValueType: dictionary.ValueTypeInteger},
			{Name: "alive", ValueType: dictionary.ValueTypeBoolean},
		},
	}
}

func TestConvertRecordValues(t *testing.T) {
	raw := dictionary.UnprocessedDataRecord{
		"donor_id": "DO-1",
		"age":      "forty",
		"alive":    "",
		"extra":    "x",
	}

	got := ConvertRecordValues(raw, donorSchema())

	wantRecord := dictionary.DataRecord{
		"donor_id": "DO-1",
		"age":      "forty",
		"extra":    "x",
	}
	if !reflect.DeepEqual(got.Record, wantRecord) {
		t.Errorf("Record = %#v, want %#v", got.Record, wantRecord)
	}

	if len(got.Errors) != 2 {
		t.Fatalf("Errors = %d, want 2: %+v", len(got.Errors), got.Errors)
	}
	if got.Errors[0].Reason != ReasonInvalidValueType || got.Errors[0].FieldName != "age" {
		t.Errorf("Errors[0] = %+v, want INVALID_VALUE_TYPE on age", got.Errors[0])
	}
	if got.Errors[1].Reason != ReasonUnrecognizedField || got.Errors[1].FieldName != "extra" {
		t.Errorf("Errors[1] = %+v, want UNRECOGNIZED_FIELD on extra", got.Errors[1])
	}
}

func TestConvertDictionaryValues(t *testing.T) {
	dict := &dictionary.Dictionary{Name: "d", Version: "1", Schemas: []dictionary.Schema{*donorSchema()}}
	data := map[string][]dictionary.UnprocessedDataRecord{
		"donor":    {{"donor_id": "DO-1", "age": "40"}, {"donor_id": "DO-2", "age": "x"}},
		"specimen": {{"id": "SP-1"}},
	}

	got := ConvertDictionaryValues(data, dict)

	if !reflect.DeepEqual(got.UnrecognizedSchemas, []string{"specimen"}) {
		t.Errorf("UnrecognizedSchemas = %v, want [specimen]", got.UnrecognizedSchemas)
	}
	donor, ok := got.Schemas["donor"]
	if !ok {
		t.Fatal("donor conversion missing")
	}
	if len(donor.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(donor.Records))
	}
	if donor.Records[0]["age"] != int64(40) {
		t.Errorf("age = %#v, want int64(40)", donor.Records[0]["age"])
	}
	if len(donor.Errors) != 1 || donor.Errors[0].Index != 1 {
		t.Errorf("Errors = %+v, want one error on record 1", donor.Errors)
	}
}
