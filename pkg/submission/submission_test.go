package submission

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"lectern-hq/lectern/pkg/dictionary"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []dictionary.UnprocessedDataRecord
		wantErr bool
	}{
		{
			name:  "header and rows",
			input: "donor_id\tage\tsex\nD1\t42\tmale\nD2\t\tFemale\n",
			want: []dictionary.UnprocessedDataRecord{
				{"donor_id": "D1", "age": "42", "sex": "male"},
				{"donor_id": "D2", "age": "", "sex": "Female"},
			},
		},
		{
			name:  "blank lines skipped",
			input: "\n donor_id \n\nD1\n\t\nD2\n",
			want: []dictionary.UnprocessedDataRecord{
				{"donor_id": "D1"},
				{"donor_id": "D2"},
			},
		},
		{
			name:  "short row keeps present cells",
			input: "a\tb\tc\n1\t2\n",
			want: []dictionary.UnprocessedDataRecord{
				{"a": "1", "b": "2"},
			},
		},
		{
			name:  "array cells untouched",
			input: "codes\nA, B ,C\n",
			want: []dictionary.UnprocessedDataRecord{
				{"codes": "A, B ,C"},
			},
		},
		{
			name:  "header only",
			input: "a\tb\n",
			want:  nil,
		},
		{name: "empty", input: "", wantErr: true},
		{name: "long row", input: "a\n1\t2\n", wantErr: true},
		{name: "duplicate header", input: "a\ta\n1\t2\n", wantErr: true},
		{name: "empty header", input: "a\t\tc\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Read() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Read() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRead_Errors(t *testing.T) {
	if _, err := Read(strings.NewReader("\n\n")); !errors.Is(err, ErrEmptySubmission) {
		t.Errorf("error = %v, want ErrEmptySubmission", err)
	}

	_, err := Read(strings.NewReader("a\n1\n1\t2\n"))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FormatError", err)
	}
	if fe.Line != 3 {
		t.Errorf("Line = %d, want 3", fe.Line)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "donor.tsv")
	if err := os.WriteFile(path, []byte("donor_id\nD1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(got) != 1 || got[0]["donor_id"] != "D1" {
		t.Errorf("ReadFile() = %v", got)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.tsv")); err == nil {
		t.Error("ReadFile(missing) expected error")
	}
}
