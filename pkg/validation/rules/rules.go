// Package rules tests field values against concrete restriction rules.
//
// Every tester has a scalar form and an array form. The array form applies the
// scalar form to each element and reports the position and value of every
// element that fails. Testers only judge values of the kind they apply to;
// a value of another type passes, since type checking happens before any rule
// is tested.
package rules

import (
	"fmt"
	"strings"

	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/validation/pattern"
	"lectern-hq/lectern/pkg/validation/restrictions"
)

// InvalidItem is an array element that failed a rule.
type InvalidItem struct {
	Position int                  `json:"position"`
	Value    dictionary.DataValue `json:"value"`
}

// Result is the outcome of testing one rule.
type Result struct {
	Valid        bool          `json:"valid"`
	Message      string        `json:"message,omitempty"`
	InvalidItems []InvalidItem `json:"invalid_items,omitempty"`
}

var valid = Result{Valid: true}

func invalid(message string, items []InvalidItem) Result {
	return Result{Message: message, InvalidItems: items}
}

// Tester tests rules, compiling regex rules with its own pattern compiler.
type Tester struct {
	patterns *pattern.Compiler
}

// NewTester creates a tester. A nil compiler uses pattern.Default().
func NewTester(patterns *pattern.Compiler) *Tester {
	if patterns == nil {
		patterns = pattern.Default()
	}
	return &Tester{patterns: patterns}
}

var defaultTester = NewTester(nil)

// Test dispatches rule to its tester.
func (t *Tester) Test(rule restrictions.Rule, value dictionary.DataValue) Result {
	switch rule.Type {
	case restrictions.RuleRequired:
		return TestRequired(true, value)
	case restrictions.RuleEmpty:
		return TestEmpty(true, value)
	case restrictions.RuleCodeList:
		return TestCodeList(rule.CodeList, value)
	case restrictions.RuleRegex:
		return t.TestRegex(rule.Regex, value)
	case restrictions.RuleRange:
		return TestRange(rule.Range, value)
	default:
		return valid
	}
}

// Test is Tester.Test with the default compiler.
func Test(rule restrictions.Rule, value dictionary.DataValue) Result {
	return defaultTester.Test(rule, value)
}

// TestRequired fails a missing value or empty string, and an empty array or
// an array with a missing element.
func TestRequired(required bool, value dictionary.DataValue) Result {
	if !required {
		return valid
	}
	const message = "A value is required for this field."
	if items, ok := dictionary.AsSlice(value); ok {
		if len(items) == 0 {
			return invalid(message, nil)
		}
		return testArray(items, isPresent, message)
	}
	if !isPresent(value) {
		return invalid(message, nil)
	}
	return valid
}

// TestEmpty fails any provided value. Arrays must have no present elements.
func TestEmpty(empty bool, value dictionary.DataValue) Result {
	if !empty {
		return valid
	}
	const message = "This field must be empty."
	if items, ok := dictionary.AsSlice(value); ok {
		return testArray(items, func(v any) bool { return !isPresent(v) }, message)
	}
	if isPresent(value) {
		return invalid(message, nil)
	}
	return valid
}

// TestCodeList fails strings and numbers that are not among the options.
// Strings are compared trimmed and case-insensitively.
func TestCodeList(list *dictionary.CodeList, value dictionary.DataValue) Result {
	if !list.IsResolved() {
		return valid
	}
	inList := func(v any) bool {
		switch val := v.(type) {
		case nil:
			return true
		case string:
			if list.IsNumeric() {
				return false
			}
			s := strings.ToLower(strings.TrimSpace(val))
			for _, option := range list.Strings {
				if strings.ToLower(strings.TrimSpace(option)) == s {
					return true
				}
			}
			return false
		}
		f, ok := dictionary.ToFloat64(v)
		if !ok {
			return true
		}
		if !list.IsNumeric() {
			return false
		}
		for _, option := range list.Numbers {
			if option == f {
				return true
			}
		}
		return false
	}

	message := "The value is not permissible for this field, it must be one of the listed options."
	if items, ok := dictionary.AsSlice(value); ok {
		return testArray(items, inList, message)
	}
	if !inList(value) {
		return invalid(message, nil)
	}
	return valid
}

// TestRegex fails strings that do not match the pattern. A pattern rejected
// by the compiler fails every string.
func (t *Tester) TestRegex(expr string, value dictionary.DataValue) Result {
	re, compileErr := t.patterns.Compile(expr)
	matches := func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return true
		}
		return compileErr == nil && re.MatchString(s)
	}

	message := fmt.Sprintf("The value is not permissible for this field, it must match the regular expression: %q.", expr)
	if compileErr != nil {
		message = fmt.Sprintf("The value cannot be checked against the regular expression %q: %v.", expr, compileErr)
	}
	if items, ok := dictionary.AsSlice(value); ok {
		return testArray(items, matches, message)
	}
	if !matches(value) {
		return invalid(message, nil)
	}
	return valid
}

// TestRegex is Tester.TestRegex with the default compiler.
func TestRegex(expr string, value dictionary.DataValue) Result {
	return defaultTester.TestRegex(expr, value)
}

// TestRange fails numbers outside the range. Every bound that is set applies.
func TestRange(r *dictionary.Range, value dictionary.DataValue) Result {
	if r == nil {
		return valid
	}
	inRange := func(v any) bool {
		f, ok := dictionary.ToFloat64(v)
		return !ok || r.Contains(f)
	}

	message := RangeMessage(r)
	if items, ok := dictionary.AsSlice(value); ok {
		return testArray(items, inRange, message)
	}
	if !inRange(value) {
		return invalid(message, nil)
	}
	return valid
}

// RangeMessage describes a range. Exclusive bounds are named in place of the
// inclusive bound on the same side.
func RangeMessage(r *dictionary.Range) string {
	var parts []string
	switch {
	case r.ExclusiveMin != nil:
		parts = append(parts, "greater than "+dictionary.FormatValue(*r.ExclusiveMin))
	case r.Min != nil:
		parts = append(parts, "greater than or equal to "+dictionary.FormatValue(*r.Min))
	}
	switch {
	case r.ExclusiveMax != nil:
		parts = append(parts, "less than "+dictionary.FormatValue(*r.ExclusiveMax))
	case r.Max != nil:
		parts = append(parts, "less than or equal to "+dictionary.FormatValue(*r.Max))
	}
	if len(parts) == 0 {
		return "The value must be a number."
	}
	return "The value must be " + strings.Join(parts, " and ") + "."
}

func testArray(items []any, ok func(any) bool, message string) Result {
	var failed []InvalidItem
	for i, item := range items {
		if !ok(item) {
			failed = append(failed, InvalidItem{Position: i, Value: item})
		}
	}
	if len(failed) > 0 {
		return invalid(message, failed)
	}
	return valid
}

func isPresent(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}
