package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lectern-hq/lectern/pkg/dictionary"
)

const yamlDictionary = `
name: clinical
version: "1.0"
references:
  SEX: [Male, Female]
schemas:
  - name: donor
    fields:
      - name: donor_id
        valueType: string
        restrictions:
          required: true
      - name: age
        valueType: integer
        restrictions:
          range: {min: 0, max: 120}
`

func TestParser_ParseBytes(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "yaml", data: yamlDictionary},
		{
			name: "json",
			data: `{"name": "clinical", "version": "1.0", "schemas": [{"name": "donor", "fields": [{"name": "id", "valueType": "string"}]}]}`,
		},
		{name: "empty", data: "", wantErr: true},
		{name: "syntax error", data: "name: [unclosed", wantErr: true},
		{name: "missing schemas", data: "name: d\nversion: '1'\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dict, err := ParseBytes([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBytes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Errorf("error type = %T, want *ParseError", err)
				}
				return
			}
			if dict.Name != "clinical" {
				t.Errorf("Name = %q, want clinical", dict.Name)
			}
		})
	}
}

func TestParser_YAMLNumbersAreNormalized(t *testing.T) {
	dict, err := ParseBytes([]byte(yamlDictionary))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	schema, _ := dict.Schema("donor")
	age, _ := schema.Field("age")
	r := age.Restrictions[0].(*dictionary.SimpleRestriction).Range
	if r.Max == nil || *r.Max != 120 {
		t.Errorf("range max = %v, want 120", r.Max)
	}
	if _, ok := dict.References["SEX"].([]any); !ok {
		t.Errorf("references SEX type = %T, want []any", dict.References["SEX"])
	}
}

func TestParser_DefinitionErrorIsWrapped(t *testing.T) {
	_, err := ParseBytes([]byte(`{"name": "d", "version": "1", "schemas": [{"name": "s", "fields": [{"name": "f", "valueType": "date"}]}]}`))
	var defErr *dictionary.DefinitionError
	if !errors.As(err, &defErr) {
		t.Fatalf("error = %v, want wrapped *dictionary.DefinitionError", err)
	}
}

func TestParser_ParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clinical.yaml")
	if err := os.WriteFile(path, []byte(yamlDictionary), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ParseFile(path); err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	_, err := NewParser().WithMaxFileSize(10).ParseFile(path)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("ParseFile() error = %v, want ErrFileTooLarge", err)
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("ParseFile() on missing file should fail")
	}
}
