package dictionary

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Restriction is one entry of a field's restriction list. It is either a
// *SimpleRestriction or a *ConditionalRestriction.
type Restriction interface {
	restriction()
}

// FieldRestrictions is an ordered list of restrictions; every entry applies.
// A field declared with a single restriction object holds a one-entry list.
type FieldRestrictions []Restriction

// MarshalJSON writes a single entry as a bare object and longer lists as arrays.
func (r FieldRestrictions) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	return json.Marshal([]Restriction(r))
}

// SimpleRestriction holds concrete rules for a field value.
type SimpleRestriction struct {
	Required bool      `json:"required,omitempty"`
	Empty    bool      `json:"empty,omitempty"`
	CodeList *CodeList `json:"codeList,omitempty"`
	Regex    string    `json:"regex,omitempty"`
	Range    *Range    `json:"range,omitempty"`
}

func (*SimpleRestriction) restriction() {}

// ConditionalRestriction selects Then or Else depending on whether If holds
// for the record being validated. Either branch may be empty.
type ConditionalRestriction struct {
	If   ConditionalRestrictionTest `json:"if"`
	Then FieldRestrictions          `json:"then,omitempty"`
	Else FieldRestrictions          `json:"else,omitempty"`
}

func (*ConditionalRestriction) restriction() {}

// ArrayTestCase reduces several boolean results to one.
type ArrayTestCase string

const (
	CaseAll  ArrayTestCase = "all"
	CaseAny  ArrayTestCase = "any"
	CaseNone ArrayTestCase = "none"
)

// IsValid reports whether c is a known case or unset.
func (c ArrayTestCase) IsValid() bool {
	switch c {
	case "", CaseAll, CaseAny, CaseNone:
		return true
	default:
		return false
	}
}

// OrDefault returns c, or CaseAll when c is unset.
func (c ArrayTestCase) OrDefault() ArrayTestCase {
	if c == "" {
		return CaseAll
	}
	return c
}

// ConditionalRestrictionTest is the "if" of a conditional restriction.
type ConditionalRestrictionTest struct {
	Conditions []RestrictionCondition `json:"conditions"`
	Case       ArrayTestCase          `json:"case,omitempty"`
}

// RestrictionCondition tests the values of other fields in the same record.
// Case combines the per-field results.
type RestrictionCondition struct {
	Fields []string      `json:"fields"`
	Match  MatchRule     `json:"match"`
	Case   ArrayTestCase `json:"case,omitempty"`
}

// MatchRule is a set of predicate channels. Every channel that is set must
// pass for the rule to match.
type MatchRule struct {
	// Value is compared for equality. nil means unset; zero values such as
	// 0, false and "" are real comparison targets.
	Value    any        `json:"value,omitempty"`
	CodeList *CodeList  `json:"codeList,omitempty"`
	Regex    string     `json:"regex,omitempty"`
	Range    *Range     `json:"range,omitempty"`
	Exists   *bool      `json:"exists,omitempty"`
	Count    *CountRule `json:"count,omitempty"`
}

// IsEmpty reports whether no channel is set.
func (m *MatchRule) IsEmpty() bool {
	return m.Value == nil && m.CodeList == nil && m.Regex == "" && m.Range == nil &&
		m.Exists == nil && m.Count == nil
}

// CodeList is an allowed-values list. Before reference resolution it may be a
// single reference tag (Reference), or contain tags among its strings.
type CodeList struct {
	Reference string
	Strings   []string
	Numbers   []float64
}

// IsResolved reports whether the list is concrete rather than a pending tag.
func (c *CodeList) IsResolved() bool {
	return c != nil && c.Reference == ""
}

// IsNumeric reports whether the list holds numbers.
func (c *CodeList) IsNumeric() bool {
	return c != nil && c.Numbers != nil
}

// Len returns the number of options.
func (c *CodeList) Len() int {
	if c == nil {
		return 0
	}
	if c.Numbers != nil {
		return len(c.Numbers)
	}
	return len(c.Strings)
}

// Clone returns a deep copy.
func (c *CodeList) Clone() *CodeList {
	if c == nil {
		return nil
	}
	return &CodeList{
		Reference: c.Reference,
		Strings:   slices.Clone(c.Strings),
		Numbers:   slices.Clone(c.Numbers),
	}
}

// MarshalJSON writes the reference tag, the number list or the string list.
func (c CodeList) MarshalJSON() ([]byte, error) {
	switch {
	case c.Reference != "":
		return json.Marshal(c.Reference)
	case c.Numbers != nil:
		return json.Marshal(c.Numbers)
	case c.Strings != nil:
		return json.Marshal(c.Strings)
	default:
		return []byte("[]"), nil
	}
}

// UnmarshalJSON reads the forms written by MarshalJSON. An empty array
// decodes as an empty string list.
func (c *CodeList) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		*c = CodeList{Reference: tag}
		return nil
	}
	var strs []string
	if err := json.Unmarshal(data, &strs); err == nil {
		if strs == nil {
			strs = []string{}
		}
		*c = CodeList{Strings: strs}
		return nil
	}
	var nums []float64
	if err := json.Unmarshal(data, &nums); err != nil {
		return fmt.Errorf("codeList must be a reference tag or a list of strings or numbers: %w", err)
	}
	*c = CodeList{Numbers: nums}
	return nil
}

// Range bounds a numeric value. Every bound that is set applies.
type Range struct {
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	ExclusiveMin *float64 `json:"exclusiveMin,omitempty"`
	ExclusiveMax *float64 `json:"exclusiveMax,omitempty"`
}

// Contains reports whether v satisfies every bound. Non-finite values never do.
func (r *Range) Contains(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	if r.ExclusiveMin != nil && v <= *r.ExclusiveMin {
		return false
	}
	if r.ExclusiveMax != nil && v >= *r.ExclusiveMax {
		return false
	}
	return true
}

// Clone returns a deep copy.
func (r *Range) Clone() *Range {
	if r == nil {
		return nil
	}
	return &Range{
		Min:          clonePtr(r.Min),
		Max:          clonePtr(r.Max),
		ExclusiveMin: clonePtr(r.ExclusiveMin),
		ExclusiveMax: clonePtr(r.ExclusiveMax),
	}
}

// CountRule constrains the number of elements of an array value, either to an
// exact count or to a range.
type CountRule struct {
	Exact *int
	Range *Range
}

// Clone returns a deep copy.
func (c *CountRule) Clone() *CountRule {
	if c == nil {
		return nil
	}
	return &CountRule{Exact: clonePtr(c.Exact), Range: c.Range.Clone()}
}

// MarshalJSON writes the exact count as a number and a range as an object.
func (c CountRule) MarshalJSON() ([]byte, error) {
	if c.Exact != nil {
		return json.Marshal(*c.Exact)
	}
	return json.Marshal(c.Range)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
