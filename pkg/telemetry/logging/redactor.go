package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces the value of a redacted attribute.
const RedactedValue = "[REDACTED]"

// Redactor masks the values of configured attribute keys. Keys match case
// insensitively at any group depth.
type Redactor struct {
	keys map[string]bool
}

// NewRedactor creates a Redactor for the given keys.
func NewRedactor(keys []string) *Redactor {
	r := &Redactor{keys: make(map[string]bool, len(keys))}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			r.keys[strings.ToLower(k)] = true
		}
	}
	return r
}

// IsRedacted reports whether values logged under key are masked.
func (r *Redactor) IsRedacted(key string) bool {
	return r.keys[strings.ToLower(key)]
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr function.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if r.IsRedacted(a.Key) {
		return slog.String(a.Key, RedactedValue)
	}
	return a
}

// RedactRecord returns a copy of a record-like map with the values of
// redacted keys masked. Use it before logging raw submission rows.
func (r *Redactor) RedactRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		if r.IsRedacted(k) {
			out[k] = RedactedValue
			continue
		}
		out[k] = v
	}
	return out
}
