// Package restrictions flattens a field's restriction tree into the concrete
// rules that apply to one record.
//
// Conditional restrictions are evaluated against the record with package
// match and replaced by their then or else branch, recursively, until only
// simple restrictions remain. Each simple restriction contributes one rule per
// constraint it sets. Every returned rule applies.
package restrictions

import (
	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/validation/match"
)

// RuleType names the constraint a Rule carries.
type RuleType string

const (
	RuleCodeList RuleType = "codeList"
	RuleRange    RuleType = "range"
	RuleRegex    RuleType = "regex"
	RuleRequired RuleType = "required"
	RuleEmpty    RuleType = "empty"
)

// Rule is one concrete constraint on a field value.
type Rule struct {
	Type     RuleType             `json:"type"`
	CodeList *dictionary.CodeList `json:"code_list,omitempty"`
	Range    *dictionary.Range    `json:"range,omitempty"`
	Regex    string               `json:"regex,omitempty"`
}

// Resolver flattens restriction trees, evaluating conditions with its
// matcher.
type Resolver struct {
	matcher *match.Matcher
}

// NewResolver creates a resolver. A nil matcher uses the default compiler.
func NewResolver(matcher *match.Matcher) *Resolver {
	if matcher == nil {
		matcher = match.NewMatcher(nil)
	}
	return &Resolver{matcher: matcher}
}

var defaultResolver = NewResolver(nil)

// Resolve returns the rules that apply to field for the given record.
func (r *Resolver) Resolve(record dictionary.DataRecord, field *dictionary.SchemaField) []Rule {
	return r.resolveList(record, field.Restrictions, nil)
}

func (r *Resolver) resolveList(record dictionary.DataRecord, list dictionary.FieldRestrictions, out []Rule) []Rule {
	for _, entry := range list {
		switch e := entry.(type) {
		case *dictionary.ConditionalRestriction:
			if r.matcher.TestConditional(&e.If, record) {
				out = r.resolveList(record, e.Then, out)
			} else {
				out = r.resolveList(record, e.Else, out)
			}
		case *dictionary.SimpleRestriction:
			out = appendSimple(out, e)
		}
	}
	return out
}

// Resolve is Resolver.Resolve with the default compiler.
func Resolve(record dictionary.DataRecord, field *dictionary.SchemaField) []Rule {
	return defaultResolver.Resolve(record, field)
}

// appendSimple extracts the rules of a simple restriction. A code list or
// pattern still holding a reference tag is skipped; resolution is expected to
// have replaced it already.
func appendSimple(out []Rule, r *dictionary.SimpleRestriction) []Rule {
	if r.CodeList.IsResolved() {
		out = append(out, Rule{Type: RuleCodeList, CodeList: r.CodeList})
	}
	if r.Range != nil {
		out = append(out, Rule{Type: RuleRange, Range: r.Range})
	}
	if r.Regex != "" && !dictionary.IsReferenceTag(r.Regex) {
		out = append(out, Rule{Type: RuleRegex, Regex: r.Regex})
	}
	if r.Required {
		out = append(out, Rule{Type: RuleRequired})
	}
	if r.Empty {
		out = append(out, Rule{Type: RuleEmpty})
	}
	return out
}

// CodeListOptions collects the string options of every code list reachable in
// the restriction tree, across all conditional branches, in declaration order.
func CodeListOptions(list dictionary.FieldRestrictions) []string {
	var out []string
	var walk func(dictionary.FieldRestrictions)
	walk = func(list dictionary.FieldRestrictions) {
		for _, entry := range list {
			switch r := entry.(type) {
			case *dictionary.ConditionalRestriction:
				walk(r.Then)
				walk(r.Else)
			case *dictionary.SimpleRestriction:
				if r.CodeList.IsResolved() && !r.CodeList.IsNumeric() {
					out = append(out, r.CodeList.Strings...)
				}
			}
		}
	}
	walk(list)
	return out
}
