package dictionary

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ReferenceTagPrefix starts every reference tag.
const ReferenceTagPrefix = "#/"

// IsReferenceTag reports whether s is a reference tag.
func IsReferenceTag(s string) bool {
	return strings.HasPrefix(s, ReferenceTagPrefix)
}

// DataValue is a typed field value: nil (absent), string, bool, int64,
// float64, or a slice of those.
type DataValue = any

// DataRecord is one row of typed values keyed by field name.
// A missing key and a nil value both mean the value is absent.
type DataRecord map[string]DataValue

// UnprocessedDataRecord is one row of raw string values keyed by field name.
type UnprocessedDataRecord map[string]string

// AsSlice returns the elements of an array value. It accepts the slice types
// produced by value conversion and by generic decoders.
func AsSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []int64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []bool:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

// IsArray reports whether v is an array value.
func IsArray(v any) bool {
	_, ok := AsSlice(v)
	return ok
}

// ToFloat64 converts a numeric value to float64.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// IsFiniteNumber reports whether v is numeric and neither NaN nor infinite.
func IsFiniteNumber(v any) bool {
	f, ok := ToFloat64(v)
	return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FormatValue renders a value for diagnostics and composite keys.
func FormatValue(v any) string {
	if v == nil {
		return ""
	}
	if items, ok := AsSlice(v); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ", ")
	}
	if f, ok := v.(float64); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return fmt.Sprintf("%d", int64(f))
		}
	}
	return fmt.Sprint(v)
}
