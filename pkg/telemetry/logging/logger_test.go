package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"lectern-hq/lectern/pkg/config"
)

func newTestLogger(t *testing.T, cfg Config) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg.Writer = &buf
	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return logger, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "level", cfg: Config{Level: "trace"}},
		{name: "format", cfg: Config{Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "warn"})

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}

	logger.Warn("shown", "schema", "donor")
	entry := decodeLine(t, buf)
	if entry["msg"] != "shown" || entry["schema"] != "donor" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if logger.Level() != slog.LevelWarn {
		t.Errorf("Level() = %v, want WARN", logger.Level())
	}
}

func TestLogger_Redaction(t *testing.T) {
	logger, buf := newTestLogger(t, Config{RedactFields: []string{"Donor_ID"}})

	logger.With("donor_id", "DO-1").Info("record invalid", "field", "age")
	entry := decodeLine(t, buf)

	if entry["donor_id"] != RedactedValue {
		t.Errorf("donor_id = %v, want %s", entry["donor_id"], RedactedValue)
	}
	if entry["field"] != "age" {
		t.Errorf("field = %v, want age", entry["field"])
	}
}

func TestLogger_ContextFields(t *testing.T) {
	logger, buf := newTestLogger(t, Config{})

	ctx := WithSubmissionID(context.Background(), "sub-1")
	ctx = WithDictionary(ctx, "clinical@1.0")
	ctx = WithSchema(ctx, "donor")

	logger.InfoContext(ctx, "validated")
	entry := decodeLine(t, buf)

	for key, want := range map[string]string{
		"submission_id": "sub-1",
		"dictionary":    "clinical@1.0",
		"schema":        "donor",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %s", key, entry[key], want)
		}
	}

	if got := logger.WithContext(context.Background()); got != logger {
		t.Error("WithContext without fields should return the same logger")
	}
}

func TestLogger_ConsoleFormat(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Format: "console"})

	logger.Info("loaded", "dictionaries", 2)
	out := buf.String()
	if strings.Contains(out, "time=") {
		t.Errorf("console output should omit time: %q", out)
	}
	if !strings.Contains(out, "msg=loaded") || !strings.Contains(out, "dictionaries=2") {
		t.Errorf("unexpected console output: %q", out)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.LoggingConfig{
		Level:        "debug",
		Format:       "text",
		AddSource:    true,
		RedactFields: []string{"donor_id"},
	})
	if cfg.Level != "debug" || cfg.Format != "text" || !cfg.AddSource || len(cfg.RedactFields) != 1 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestRedactor_RedactRecord(t *testing.T) {
	r := NewRedactor([]string{"donor_id", " "})
	record := map[string]any{"donor_id": "DO-1", "age": 40}

	got := r.RedactRecord(record)
	if got["donor_id"] != RedactedValue || got["age"] != 40 {
		t.Errorf("unexpected redacted record: %v", got)
	}
	if record["donor_id"] != "DO-1" {
		t.Error("RedactRecord must not modify its input")
	}
	if r.IsRedacted("") {
		t.Error("blank keys should be ignored")
	}
}
