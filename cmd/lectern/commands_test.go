package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"lectern-hq/lectern/pkg/cli"
)

const testDictionary = `{
  "name": "clinical",
  "version": "1.0",
  "references": {"SEX": ["Male", "Female"]},
  "schemas": [{
    "name": "donor",
    "fields": [
      {"name": "donor_id", "valueType": "string", "restrictions": {"required": true}},
      {"name": "sex", "valueType": "string", "restrictions": {"codeList": "#/SEX"}}
    ]
  }]
}`

// testConfigPath is shared by every command test; the configuration is
// loaded once per process.
var testConfigPath string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "lectern-cmd")
	if err != nil {
		panic(err)
	}

	dictDir := filepath.Join(dir, "dictionaries")
	if err := os.MkdirAll(dictDir, 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(filepath.Join(dictDir, "clinical.json"), []byte(testDictionary), 0o644); err != nil {
		panic(err)
	}

	testConfigPath = filepath.Join(dir, "lectern.yaml")
	cfg := "dictionaries:\n  path: " + dictDir + "\n" +
		"reports:\n  enabled: true\n  backend: memory\n" +
		"telemetry:\n  logging:\n    level: error\n"
	if err := os.WriteFile(testConfigPath, []byte(cfg), 0o644); err != nil {
		panic(err)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// resetFlags restores every flag to its default so runs do not leak state
// into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(append(args, "--config", testConfigPath))
	return rootCmd.ExecuteContext(context.Background())
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestResolveCommand(t *testing.T) {
	dictPath := writeTemp(t, "clinical.json", testDictionary)
	out := filepath.Join(t.TempDir(), "resolved.json")

	if err := execute(t, "resolve", "--file", dictPath, "--output", out); err != nil {
		t.Fatalf("resolve error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if strings.Contains(string(data), "#/SEX") {
		t.Errorf("resolved output still has a reference tag:\n%s", data)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if doc["name"] != "clinical" {
		t.Errorf("name = %v, want clinical", doc["name"])
	}
}

func TestValidateCommand(t *testing.T) {
	dictPath := writeTemp(t, "clinical.json", testDictionary)

	tests := []struct {
		name     string
		data     string
		args     []string
		wantErr  error
		wantText string
	}{
		{
			name:     "valid file dictionary",
			data:     "donor_id\tsex\nD1\tmale\n",
			args:     []string{"--dictionary", dictPath},
			wantText: "Result: VALID",
		},
		{
			name:     "invalid submission",
			data:     "donor_id\tsex\nD1\tunknown\n",
			args:     []string{"--dictionary", dictPath},
			wantErr:  cli.ErrInvalidSubmission,
			wantText: "sex [INVALID_BY_RESTRICTION]",
		},
		{
			name:     "loaded dictionary",
			data:     "donor_id\tsex\nD1\tFemale\n",
			args:     []string{"--name", "clinical", "--store"},
			wantText: "Result: VALID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataPath := writeTemp(t, "donor.tsv", tt.data)
			out := filepath.Join(t.TempDir(), "report.txt")

			args := append([]string{"validate", "--schema", "donor", "--data", dataPath, "--format", "text", "--output", out}, tt.args...)
			err := execute(t, args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("validate error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("validate error = %v", err)
			}

			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !strings.Contains(string(data), tt.wantText) {
				t.Errorf("output missing %q:\n%s", tt.wantText, data)
			}
		})
	}
}
