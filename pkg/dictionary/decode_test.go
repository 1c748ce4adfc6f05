package dictionary

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const donorDictionaryJSON = `{
  "name": "clinical",
  "version": "1.2",
  "references": {"SEX": ["Male", "Female"]},
  "schemas": [
    {
      "name": "donor",
      "restrictions": {"uniqueKey": ["donor_id"]},
      "fields": [
        {"name": "donor_id", "valueType": "string", "unique": true, "restrictions": {"required": true}},
        {"name": "sex", "valueType": "string", "restrictions": {"codeList": ["#/SEX", "Other"]}},
        {"name": "age", "valueType": "integer", "restrictions": {"range": {"min": 0, "exclusiveMax": 150}}},
        {"name": "tissue_source", "valueType": "string"},
        {
          "name": "tissue_detail",
          "valueType": "string",
          "restrictions": [
            {"regex": "^[a-z]+$"},
            {
              "if": {"conditions": [{"fields": ["tissue_source"], "match": {"value": "Other"}}]},
              "then": {"required": true},
              "else": {"empty": true}
            }
          ]
        },
        {"name": "tags", "valueType": "string", "isArray": true, "delimiter": ";"}
      ]
    }
  ]
}`

func TestDictionary_UnmarshalJSON(t *testing.T) {
	var dict Dictionary
	if err := json.Unmarshal([]byte(donorDictionaryJSON), &dict); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if dict.Name != "clinical" || dict.Version != "1.2" {
		t.Errorf("name/version = %q/%q, want clinical/1.2", dict.Name, dict.Version)
	}

	donor, ok := dict.Schema("donor")
	if !ok {
		t.Fatal("schema donor not found")
	}
	if got := donor.Restrictions.UniqueKey; len(got) != 1 || got[0] != "donor_id" {
		t.Errorf("uniqueKey = %v, want [donor_id]", got)
	}

	sex, _ := donor.Field("sex")
	simple, ok := sex.Restrictions[0].(*SimpleRestriction)
	if !ok {
		t.Fatalf("sex restriction type = %T, want *SimpleRestriction", sex.Restrictions[0])
	}
	if got := simple.CodeList.Strings; len(got) != 2 || got[0] != "#/SEX" || got[1] != "Other" {
		t.Errorf("codeList = %v, want [#/SEX Other]", got)
	}

	age, _ := donor.Field("age")
	r := age.Restrictions[0].(*SimpleRestriction).Range
	if r.Min == nil || *r.Min != 0 || r.ExclusiveMax == nil || *r.ExclusiveMax != 150 {
		t.Errorf("range = %+v, want min 0 exclusiveMax 150", r)
	}

	detail, _ := donor.Field("tissue_detail")
	if len(detail.Restrictions) != 2 {
		t.Fatalf("tissue_detail restrictions = %d, want 2", len(detail.Restrictions))
	}
	cond, ok := detail.Restrictions[1].(*ConditionalRestriction)
	if !ok {
		t.Fatalf("second restriction type = %T, want *ConditionalRestriction", detail.Restrictions[1])
	}
	if got := cond.If.Conditions[0].Match.Value; got != "Other" {
		t.Errorf("match value = %v, want Other", got)
	}
	if then := cond.Then[0].(*SimpleRestriction); !then.Required {
		t.Error("then branch should be required")
	}
	if els := cond.Else[0].(*SimpleRestriction); !els.Empty {
		t.Error("else branch should be empty")
	}

	tags, _ := donor.Field("tags")
	if got := tags.ArrayDelimiter(); got != ";" {
		t.Errorf("ArrayDelimiter() = %q, want ;", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantPath string
	}{
		{
			name:     "missing name",
			doc:      `{"version": "1", "schemas": []}`,
			wantPath: "name",
		},
		{
			name:     "unknown value type",
			doc:      `{"name": "d", "version": "1", "schemas": [{"name": "s", "fields": [{"name": "f", "valueType": "date"}]}]}`,
			wantPath: "schemas[0].fields[0].valueType",
		},
		{
			name:     "mixed code list",
			doc:      `{"name": "d", "version": "1", "schemas": [{"name": "s", "fields": [{"name": "f", "valueType": "string", "restrictions": {"codeList": ["a", 1]}}]}]}`,
			wantPath: "schemas[0].fields[0].restrictions.codeList[1]",
		},
		{
			name:     "bad case",
			doc:      `{"name": "d", "version": "1", "schemas": [{"name": "s", "fields": [{"name": "f", "valueType": "string", "restrictions": {"if": {"case": "most", "conditions": [{"fields": ["g"], "match": {"exists": true}}]}}}]}]}`,
			wantPath: "schemas[0].fields[0].restrictions.if.case",
		},
		{
			name:     "duplicate field",
			doc:      `{"name": "d", "version": "1", "schemas": [{"name": "s", "fields": [{"name": "f", "valueType": "string"}, {"name": "f", "valueType": "string"}]}]}`,
			wantPath: "schemas[0].fields[1].name",
		},
		{
			name:     "negative count",
			doc:      `{"name": "d", "version": "1", "schemas": [{"name": "s", "fields": [{"name": "f", "valueType": "string", "restrictions": {"if": {"conditions": [{"fields": ["g"], "match": {"count": -1}}]}}}]}]}`,
			wantPath: "schemas[0].fields[0].restrictions.if.conditions[0].match.count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dict Dictionary
			err := json.Unmarshal([]byte(tt.doc), &dict)
			if err == nil {
				t.Fatal("Unmarshal() error = nil, want DefinitionError")
			}
			var defErr *DefinitionError
			if !errors.As(err, &defErr) {
				t.Fatalf("error type = %T, want *DefinitionError", err)
			}
			found := false
			for _, fe := range defErr.Errors {
				if fe.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("no error at %q in %v", tt.wantPath, defErr)
			}
		})
	}
}

func TestDecode_MatchRuleZeroValues(t *testing.T) {
	doc := map[string]any{
		"fields": []any{"flag"},
		"match":  map[string]any{"value": false},
	}
	d := &decoder{}
	cond := d.condition("c", doc)
	if err := d.result(); err != nil {
		t.Fatalf("condition() error = %v", err)
	}
	if cond.Match.Value != false {
		t.Errorf("Value = %v, want false", cond.Match.Value)
	}
	if cond.Match.IsEmpty() {
		t.Error("match with value false should not be empty")
	}
}

func TestDecode_CountRule(t *testing.T) {
	tests := []struct {
		name      string
		raw       any
		wantExact int
		wantRange bool
	}{
		{name: "exact", raw: 2, wantExact: 2},
		{name: "range", raw: map[string]any{"min": 1.0, "max": 3.0}, wantRange: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &decoder{}
			rule := d.countRule("count", normalizeValue(tt.raw))
			if err := d.result(); err != nil {
				t.Fatalf("countRule() error = %v", err)
			}
			if tt.wantRange {
				if rule.Range == nil {
					t.Error("Range = nil, want range")
				}
				return
			}
			if rule.Exact == nil || *rule.Exact != tt.wantExact {
				t.Errorf("Exact = %v, want %d", rule.Exact, tt.wantExact)
			}
		})
	}
}

func TestDictionary_MarshalRoundTripShape(t *testing.T) {
	var dict Dictionary
	if err := json.Unmarshal([]byte(donorDictionaryJSON), &dict); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	out, err := json.Marshal(&dict)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(out)

	for _, want := range []string{
		`"restrictions":{"required":true}`,
		`"codeList":["#/SEX","Other"]`,
		`"then":{"required":true}`,
		`"uniqueKey":["donor_id"]`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("marshalled dictionary missing %s\n%s", want, s)
		}
	}
}

func TestRange_Contains(t *testing.T) {
	zero, ten := 0.0, 10.0
	tests := []struct {
		name  string
		r     Range
		value float64
		want  bool
	}{
		{name: "inside inclusive", r: Range{Min: &zero, Max: &ten}, value: 10, want: true},
		{name: "at exclusive max", r: Range{ExclusiveMax: &ten}, value: 10, want: false},
		{name: "both min kinds enforced", r: Range{Min: &zero, ExclusiveMin: &zero}, value: 0, want: false},
		{name: "below min", r: Range{Min: &zero}, value: -1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contains(tt.value); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestSchemaField_Examples(t *testing.T) {
	field := SchemaField{Meta: Meta{"examples": []any{"DO-1", "DO-2"}}}
	got := field.Examples()
	if len(got) != 2 || got[0] != "DO-1" {
		t.Errorf("Examples() = %v, want [DO-1 DO-2]", got)
	}
}
