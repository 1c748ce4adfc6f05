// Package match evaluates the match rules used by the conditions of
// conditional restrictions.
//
// Each channel of a match rule (value, codeList, regex, range, exists, count)
// has its own test. A rule holds when every channel it sets holds. Results
// over several fields, or over several conditions, are reduced with an
// ArrayTestCase. None of the tests fail loudly: a value of the wrong shape for
// a channel simply does not match.
package match

import (
	"cmp"
	"slices"
	"strings"

	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/validation/pattern"
)

// ResultForCase reduces results with the given case. An unset case means all.
//
//	all:  every result is true
//	any:  at least one result is true
//	none: every result is false
func ResultForCase(c dictionary.ArrayTestCase, results []bool) bool {
	switch c.OrDefault() {
	case dictionary.CaseAny:
		return slices.Contains(results, true)
	case dictionary.CaseNone:
		return !slices.Contains(results, true)
	default:
		return !slices.Contains(results, false)
	}
}

// Matcher evaluates match rules, compiling regex channels with its own
// pattern compiler.
type Matcher struct {
	patterns *pattern.Compiler
}

// NewMatcher creates a matcher using patterns. A nil compiler uses
// pattern.Default().
func NewMatcher(patterns *pattern.Compiler) *Matcher {
	if patterns == nil {
		patterns = pattern.Default()
	}
	return &Matcher{patterns: patterns}
}

var defaultMatcher = NewMatcher(nil)

// TestConditional evaluates the "if" of a conditional restriction against a
// record.
func (m *Matcher) TestConditional(test *dictionary.ConditionalRestrictionTest, record dictionary.DataRecord) bool {
	results := make([]bool, 0, len(test.Conditions))
	for i := range test.Conditions {
		results = append(results, m.TestCondition(&test.Conditions[i], record))
	}
	return ResultForCase(test.Case, results)
}

// TestCondition applies the condition's match rule to each named field of the
// record and reduces the per-field results with the condition's case.
func (m *Matcher) TestCondition(cond *dictionary.RestrictionCondition, record dictionary.DataRecord) bool {
	results := make([]bool, 0, len(cond.Fields))
	for _, name := range cond.Fields {
		results = append(results, m.TestRule(&cond.Match, record[name]))
	}
	return ResultForCase(cond.Case, results)
}

// TestRule reports whether value satisfies every channel set on rule.
// A rule with no channels matches everything.
func (m *Matcher) TestRule(rule *dictionary.MatchRule, value dictionary.DataValue) bool {
	if rule.Value != nil && !TestValue(rule.Value, value) {
		return false
	}
	if rule.CodeList != nil && !TestCodeList(rule.CodeList, value) {
		return false
	}
	if rule.Regex != "" && !m.TestRegex(rule.Regex, value) {
		return false
	}
	if rule.Range != nil && !TestRange(rule.Range, value) {
		return false
	}
	if rule.Exists != nil && !TestExists(*rule.Exists, value) {
		return false
	}
	if rule.Count != nil && !TestCount(rule.Count, value) {
		return false
	}
	return true
}

// TestRegex reports whether a string value, or any string element of an array
// value, matches the pattern. Patterns the compiler rejects match nothing.
func (m *Matcher) TestRegex(expr string, value dictionary.DataValue) bool {
	re, err := m.patterns.Compile(expr)
	if err != nil {
		return false
	}
	if items, ok := dictionary.AsSlice(value); ok {
		return slices.ContainsFunc(items, func(item any) bool {
			s, ok := item.(string)
			return ok && re.MatchString(s)
		})
	}
	s, ok := value.(string)
	return ok && re.MatchString(s)
}

// TestConditional is Matcher.TestConditional with the default compiler.
func TestConditional(test *dictionary.ConditionalRestrictionTest, record dictionary.DataRecord) bool {
	return defaultMatcher.TestConditional(test, record)
}

// TestCondition is Matcher.TestCondition with the default compiler.
func TestCondition(cond *dictionary.RestrictionCondition, record dictionary.DataRecord) bool {
	return defaultMatcher.TestCondition(cond, record)
}

// TestRule is Matcher.TestRule with the default compiler.
func TestRule(rule *dictionary.MatchRule, value dictionary.DataValue) bool {
	return defaultMatcher.TestRule(rule, value)
}

// TestRegex is Matcher.TestRegex with the default compiler.
func TestRegex(expr string, value dictionary.DataValue) bool {
	return defaultMatcher.TestRegex(expr, value)
}

// TestValue compares value with the expected match value. Strings are
// compared trimmed and case-insensitively. Arrays are compared as multisets of
// equal length. An array never equals a scalar.
func TestValue(expected, value dictionary.DataValue) bool {
	if value == nil {
		return false
	}

	wantItems, wantArray := dictionary.AsSlice(expected)
	gotItems, gotArray := dictionary.AsSlice(value)
	if wantArray != gotArray {
		return false
	}
	if !wantArray {
		return scalarEqual(normalize(expected), normalize(value))
	}

	if len(wantItems) != len(gotItems) {
		return false
	}
	want := normalizeAll(wantItems)
	got := normalizeAll(gotItems)
	slices.SortFunc(want, compareNormalized)
	slices.SortFunc(got, compareNormalized)
	for i := range want {
		if !scalarEqual(want[i], got[i]) {
			return false
		}
	}
	return true
}

// TestCodeList reports whether value, or any element of an array value, is
// one of the options. String lists only match strings and numeric lists only
// match numbers. An unresolved list matches nothing.
func TestCodeList(list *dictionary.CodeList, value dictionary.DataValue) bool {
	if !list.IsResolved() || value == nil {
		return false
	}
	if items, ok := dictionary.AsSlice(value); ok {
		return slices.ContainsFunc(items, func(item any) bool {
			return codeListContains(list, item)
		})
	}
	return codeListContains(list, value)
}

func codeListContains(list *dictionary.CodeList, value any) bool {
	if list.IsNumeric() {
		f, ok := dictionary.ToFloat64(value)
		if !ok {
			return false
		}
		return slices.Contains(list.Numbers, f)
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	s = normalizeString(s)
	return slices.ContainsFunc(list.Strings, func(option string) bool {
		return normalizeString(option) == s
	})
}

// TestRange reports whether a numeric value, or any numeric element of an
// array value, lies within the range.
func TestRange(r *dictionary.Range, value dictionary.DataValue) bool {
	inRange := func(v any) bool {
		f, ok := dictionary.ToFloat64(v)
		return ok && r.Contains(f)
	}
	if items, ok := dictionary.AsSlice(value); ok {
		return slices.ContainsFunc(items, inRange)
	}
	return inRange(value)
}

// TestExists compares the rule's expectation with whether value exists.
func TestExists(exists bool, value dictionary.DataValue) bool {
	return exists == valueExists(value)
}

// valueExists: strings must be non-blank, numbers finite, booleans always
// exist, arrays must be non-empty with every element existing.
func valueExists(value dictionary.DataValue) bool {
	if value == nil {
		return false
	}
	if items, ok := dictionary.AsSlice(value); ok {
		if len(items) == 0 {
			return false
		}
		for _, item := range items {
			if !valueExists(item) {
				return false
			}
		}
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case bool:
		return true
	default:
		return dictionary.IsFiniteNumber(v)
	}
}

// TestCount checks the number of elements of an array value. Scalars never
// match.
func TestCount(count *dictionary.CountRule, value dictionary.DataValue) bool {
	items, ok := dictionary.AsSlice(value)
	if !ok {
		return false
	}
	switch {
	case count.Exact != nil:
		return len(items) == *count.Exact
	case count.Range != nil:
		return count.Range.Contains(float64(len(items)))
	default:
		return false
	}
}

// normalized is a scalar reduced to a comparable form.
type normalized struct {
	kind int
	s    string
	f    float64
	b    bool
}

const (
	kindOther = iota
	kindString
	kindNumber
	kindBool
)

func normalizeString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalize(v any) normalized {
	switch val := v.(type) {
	case string:
		return normalized{kind: kindString, s: normalizeString(val)}
	case bool:
		return normalized{kind: kindBool, b: val}
	}
	if f, ok := dictionary.ToFloat64(v); ok {
		return normalized{kind: kindNumber, f: f}
	}
	return normalized{kind: kindOther, s: dictionary.FormatValue(v)}
}

func normalizeAll(items []any) []normalized {
	out := make([]normalized, len(items))
	for i, item := range items {
		out[i] = normalize(item)
	}
	return out
}

func scalarEqual(a, b normalized) bool {
	return a == b
}

func compareNormalized(a, b normalized) int {
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	switch a.kind {
	case kindNumber:
		return cmp.Compare(a.f, b.f)
	case kindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	default:
		return strings.Compare(a.s, b.s)
	}
}
