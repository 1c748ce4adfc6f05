package logging

import "context"

type contextKey string

const (
	// SubmissionIDKey is the context key for the validation run identifier.
	SubmissionIDKey contextKey = "submission_id"

	// DictionaryKey is the context key for the dictionary name and version.
	DictionaryKey contextKey = "dictionary"

	// SchemaKey is the context key for the schema being validated.
	SchemaKey contextKey = "schema"
)

// WithSubmissionID adds a submission identifier to the context.
func WithSubmissionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SubmissionIDKey, id)
}

// GetSubmissionID retrieves the submission identifier from the context.
func GetSubmissionID(ctx context.Context) string {
	if id, ok := ctx.Value(SubmissionIDKey).(string); ok {
		return id
	}
	return ""
}

// WithDictionary adds a dictionary reference ("name@version") to the context.
func WithDictionary(ctx context.Context, dictionary string) context.Context {
	return context.WithValue(ctx, DictionaryKey, dictionary)
}

// GetDictionary retrieves the dictionary reference from the context.
func GetDictionary(ctx context.Context) string {
	if d, ok := ctx.Value(DictionaryKey).(string); ok {
		return d
	}
	return ""
}

// WithSchema adds a schema name to the context.
func WithSchema(ctx context.Context, schema string) context.Context {
	return context.WithValue(ctx, SchemaKey, schema)
}

// GetSchema retrieves the schema name from the context.
func GetSchema(ctx context.Context) string {
	if s, ok := ctx.Value(SchemaKey).(string); ok {
		return s
	}
	return ""
}

// ContextFields returns the context's log fields as key-value pairs, ready
// to pass to slog.Logger.With.
func ContextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	var fields []any
	if id := GetSubmissionID(ctx); id != "" {
		fields = append(fields, string(SubmissionIDKey), id)
	}
	if d := GetDictionary(ctx); d != "" {
		fields = append(fields, string(DictionaryKey), d)
	}
	if s := GetSchema(ctx); s != "" {
		fields = append(fields, string(SchemaKey), s)
	}
	return fields
}
