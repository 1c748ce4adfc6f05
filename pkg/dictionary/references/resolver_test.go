package references

import (
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"testing"

	"lectern-hq/lectern/pkg/dictionary"
)

func mustDictionary(t *testing.T, doc string) *dictionary.Dictionary {
	t.Helper()
	var dict dictionary.Dictionary
	if err := json.Unmarshal([]byte(doc), &dict); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return &dict
}

func simpleRestriction(t *testing.T, dict *dictionary.Dictionary, schema, field string) *dictionary.SimpleRestriction {
	t.Helper()
	s, ok := dict.Schema(schema)
	if !ok {
		t.Fatalf("schema %q not found", schema)
	}
	f, ok := s.Field(field)
	if !ok {
		t.Fatalf("field %q not found", field)
	}
	r, ok := f.Restrictions[0].(*dictionary.SimpleRestriction)
	if !ok {
		t.Fatalf("restriction type = %T, want *SimpleRestriction", f.Restrictions[0])
	}
	return r
}

func TestResolveDictionary_CodeListFlattening(t *testing.T) {
	dict := mustDictionary(t, `{
		"name": "d", "version": "1",
		"references": {"SEX": ["Male", "Female"]},
		"schemas": [{"name": "donor", "fields": [
			{"name": "sex", "valueType": "string", "restrictions": {"codeList": ["#/SEX", "Other"]}}
		]}]
	}`)

	out, err := ResolveDictionary(dict)
	if err != nil {
		t.Fatalf("ResolveDictionary() error = %v", err)
	}

	got := simpleRestriction(t, out, "donor", "sex").CodeList.Strings
	want := []string{"Male", "Female", "Other"}
	if !slices.Equal(got, want) {
		t.Errorf("codeList = %v, want %v", got, want)
	}
	if out.References != nil {
		t.Errorf("References = %v, want nil", out.References)
	}

	// The input keeps its tags.
	orig := simpleRestriction(t, dict, "donor", "sex").CodeList.Strings
	if !slices.Equal(orig, []string{"#/SEX", "Other"}) {
		t.Errorf("input codeList mutated: %v", orig)
	}
}

func TestResolveDictionary_NoReferences(t *testing.T) {
	docs := map[string]string{
		"missing section": `{"name": "d", "version": "1", "meta": {"owner": "team", "n": 2},
			"schemas": [{"name": "s", "fields": [{"name": "f", "valueType": "integer", "restrictions": {"range": {"min": 1}}}]}]}`,
		"empty section": `{"name": "d", "version": "1", "references": {}, "meta": {"owner": "team", "n": 2},
			"schemas": [{"name": "s", "fields": [{"name": "f", "valueType": "integer", "restrictions": {"range": {"min": 1}}}]}]}`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			dict := mustDictionary(t, doc)
			out, err := ResolveDictionary(dict)
			if err != nil {
				t.Fatalf("ResolveDictionary() error = %v", err)
			}

			want := *dict
			want.References = nil
			if !reflect.DeepEqual(out, &want) {
				t.Errorf("ResolveDictionary() = %+v, want %+v", out, &want)
			}
		})
	}
}

func TestResolveTag_Errors(t *testing.T) {
	tests := []struct {
		name      string
		refs      dictionary.References
		tag       string
		reason    Reason
		wantCycle []string
	}{
		{
			name:      "self reference",
			refs:      dictionary.References{"SELF": "#/SELF"},
			tag:       "#/SELF",
			reason:    ReasonCyclic,
			wantCycle: []string{"#/SELF", "#/SELF"},
		},
		{
			name:      "two hop cycle",
			refs:      dictionary.References{"A": "#/B", "B": "#/A"},
			tag:       "#/A",
			reason:    ReasonCyclic,
			wantCycle: []string{"#/A", "#/B", "#/A"},
		},
		{
			name:      "cycle through list",
			refs:      dictionary.References{"A": []any{"x", "#/B"}, "B": []any{"#/A"}},
			tag:       "#/A",
			reason:    ReasonCyclic,
			wantCycle: []string{"#/A", "#/B", "#/A"},
		},
		{
			name:   "not found",
			refs:   dictionary.References{"A": "x"},
			tag:    "#/MISSING",
			reason: ReasonNotFound,
		},
		{
			name:   "path through leaf",
			refs:   dictionary.References{"A": "x"},
			tag:    "#/A/B",
			reason: ReasonNotFound,
		},
		{
			name:   "nested object",
			refs:   dictionary.References{"GROUP": map[string]any{"A": "x"}},
			tag:    "#/GROUP",
			reason: ReasonNestedObject,
		},
		{
			name:   "number leaf",
			refs:   dictionary.References{"N": 3.0},
			tag:    "#/N",
			reason: ReasonInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveTag(tt.tag, tt.refs)
			if !errors.Is(err, ErrInvalidReference) {
				t.Fatalf("ResolveTag() error = %v, want ErrInvalidReference", err)
			}
			var refErr *InvalidReferenceError
			if !errors.As(err, &refErr) {
				t.Fatalf("error type = %T, want *InvalidReferenceError", err)
			}
			if refErr.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", refErr.Reason, tt.reason)
			}
			if refErr.Tag != tt.tag && tt.reason != ReasonCyclic {
				t.Errorf("Tag = %q, want %q", refErr.Tag, tt.tag)
			}
			if tt.wantCycle != nil {
				if refErr.Tag != tt.wantCycle[len(tt.wantCycle)-1] {
					t.Errorf("Tag = %q, want closing tag %q", refErr.Tag, tt.wantCycle[len(tt.wantCycle)-1])
				}
				if !slices.Equal(refErr.Cycle, tt.wantCycle) {
					t.Errorf("Cycle = %v, want %v", refErr.Cycle, tt.wantCycle)
				}
			}
		})
	}
}

func TestResolveTag_Chains(t *testing.T) {
	refs := dictionary.References{
		"REGEX": map[string]any{"ID": "#/REGEX/DONOR", "DONOR": "^DO-[0-9]+$"},
		"ALL":   []any{"#/SOME", "c"},
		"SOME":  []any{"a", "b"},
	}

	tests := []struct {
		tag  string
		want []string
	}{
		{tag: "#/REGEX/ID", want: []string{"^DO-[0-9]+$"}},
		{tag: "#/ALL", want: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ResolveTag(tt.tag, refs)
			if err != nil {
				t.Fatalf("ResolveTag() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ResolveTag() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolutionContext_Memoizes(t *testing.T) {
	ctx := newContext(dictionary.References{"SEX": []any{"Male", "Female"}})

	first, err := ctx.resolve("#/SEX")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	second, err := ctx.resolve("#/SEX")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second resolve = %v, want %v", second, first)
	}
	if ctx.lookups != 1 {
		t.Errorf("lookups = %d, want 1", ctx.lookups)
	}
}

func TestResolveDictionary_Conditional(t *testing.T) {
	dict := mustDictionary(t, `{
		"name": "d", "version": "1",
		"references": {
			"OTHER": "Other",
			"SOURCES": ["Blood", "Tissue"],
			"PATTERN": "^[A-Z]+$"
		},
		"schemas": [{"name": "sample", "fields": [
			{"name": "tissue_source", "valueType": "string"},
			{
				"name": "tissue_detail", "valueType": "string",
				"restrictions": {
					"if": {"conditions": [{"fields": ["tissue_source"], "match": {"value": "#/OTHER", "codeList": "#/SOURCES", "regex": "#/PATTERN"}}]},
					"then": [{"required": true}, {"codeList": ["#/SOURCES"]}],
					"else": {"regex": "#/PATTERN"}
				}
			}
		]}]
	}`)

	out, err := ResolveDictionary(dict)
	if err != nil {
		t.Fatalf("ResolveDictionary() error = %v", err)
	}

	s, _ := out.Schema("sample")
	f, _ := s.Field("tissue_detail")
	cond := f.Restrictions[0].(*dictionary.ConditionalRestriction)

	match := cond.If.Conditions[0].Match
	if match.Value != "Other" {
		t.Errorf("match value = %v, want Other", match.Value)
	}
	if !slices.Equal(match.CodeList.Strings, []string{"Blood", "Tissue"}) {
		t.Errorf("match codeList = %v", match.CodeList.Strings)
	}
	if match.Regex != "^[A-Z]+$" {
		t.Errorf("match regex = %q", match.Regex)
	}

	then := cond.Then[1].(*dictionary.SimpleRestriction)
	if !slices.Equal(then.CodeList.Strings, []string{"Blood", "Tissue"}) {
		t.Errorf("then codeList = %v", then.CodeList.Strings)
	}
	els := cond.Else[0].(*dictionary.SimpleRestriction)
	if els.Regex != "^[A-Z]+$" {
		t.Errorf("else regex = %q", els.Regex)
	}
}

func TestResolveDictionary_RegexMustBeSingle(t *testing.T) {
	dict := mustDictionary(t, `{
		"name": "d", "version": "1",
		"references": {"PATTERNS": ["^a$", "^b$"]},
		"schemas": [{"name": "s", "fields": [
			{"name": "f", "valueType": "string", "restrictions": {"regex": "#/PATTERNS"}}
		]}]
	}`)

	_, err := ResolveDictionary(dict)
	var refErr *InvalidReferenceError
	if !errors.As(err, &refErr) || refErr.Reason != ReasonAmbiguousPattern {
		t.Fatalf("ResolveDictionary() error = %v, want ambiguous_pattern", err)
	}
	if refErr.Location != "schemas[s].fields[f].restrictions.regex" {
		t.Errorf("Location = %q", refErr.Location)
	}
}

func TestResolveDictionary_MissingTagAborts(t *testing.T) {
	dict := mustDictionary(t, `{
		"name": "d", "version": "1",
		"schemas": [{"name": "s", "fields": [
			{"name": "f", "valueType": "string", "restrictions": {"codeList": "#/NOPE"}}
		]}]
	}`)

	out, err := ResolveDictionary(dict)
	if out != nil {
		t.Error("ResolveDictionary() returned a partial dictionary")
	}
	var refErr *InvalidReferenceError
	if !errors.As(err, &refErr) || refErr.Tag != "#/NOPE" || refErr.Reason != ReasonNotFound {
		t.Fatalf("ResolveDictionary() error = %v, want not_found for #/NOPE", err)
	}
}

func TestResolveMeta(t *testing.T) {
	refs := dictionary.References{
		"UNITS":   "years",
		"SAMPLES": []any{"DO-1", "DO-2"},
	}
	meta := dictionary.Meta{
		"units":    "#/UNITS",
		"examples": []any{"#/SAMPLES", "DO-3"},
		"display":  map[string]any{"unit": "#/UNITS", "width": 4.0},
		"core":     true,
	}

	out, err := ResolveMeta(meta, refs)
	if err != nil {
		t.Fatalf("ResolveMeta() error = %v", err)
	}

	want := dictionary.Meta{
		"units":    "years",
		"examples": []any{"DO-1", "DO-2", "DO-3"},
		"display":  dictionary.Meta{"unit": "years", "width": 4.0},
		"core":     true,
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("ResolveMeta() = %#v, want %#v", out, want)
	}
	if meta["units"] != "#/UNITS" {
		t.Error("ResolveMeta() mutated its input")
	}
}

func TestResolveField_FreshContextPerCall(t *testing.T) {
	refs := dictionary.References{"A": "#/B", "B": "value"}
	field := &dictionary.SchemaField{
		Name:      "f",
		ValueType: dictionary.ValueTypeString,
		Restrictions: dictionary.FieldRestrictions{
			&dictionary.SimpleRestriction{Regex: "#/A"},
		},
	}

	for i := 0; i < 2; i++ {
		out, err := ResolveField(field, refs)
		if err != nil {
			t.Fatalf("call %d: ResolveField() error = %v", i, err)
		}
		if got := out.Restrictions[0].(*dictionary.SimpleRestriction).Regex; got != "value" {
			t.Errorf("call %d: regex = %q, want value", i, got)
		}
	}
}
