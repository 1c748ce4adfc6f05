// Package references replaces reference tags ("#/path/to/value") in a
// dictionary with the values they point to in the dictionary's references
// section.
//
// Resolution is a pure transform: the input is never modified and a new
// dictionary is built for the output. Each top-level call owns a fresh
// resolution context that memoizes resolved tags and tracks the tags
// currently being resolved so that cycles, including self references, are
// reported instead of recursing forever. Any failure aborts the whole call;
// a partially resolved dictionary is never returned.
package references

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"lectern-hq/lectern/pkg/dictionary"
)

// resolved is the value a tag stands for: one string or a list of strings.
type resolved struct {
	values []string
	list   bool
}

// resolutionContext is the per-call resolution state. It is created by each
// exported entry point and never shared between calls.
type resolutionContext struct {
	refs       dictionary.References
	discovered map[string]resolved
	visited    map[string]bool
	stack      []string

	// lookups counts reads of the references table.
	lookups int
}

func newContext(refs dictionary.References) *resolutionContext {
	return &resolutionContext{
		refs:       refs,
		discovered: make(map[string]resolved),
		visited:    make(map[string]bool),
	}
}

// ResolveDictionary returns a copy of dict with every reference tag in its
// schemas, restrictions and meta replaced. The output has no references.
func ResolveDictionary(dict *dictionary.Dictionary) (*dictionary.Dictionary, error) {
	ctx := newContext(dict.References)

	out := &dictionary.Dictionary{
		Name:        dict.Name,
		Version:     dict.Version,
		Description: dict.Description,
		Schemas:     make([]dictionary.Schema, 0, len(dict.Schemas)),
	}

	meta, err := ctx.meta("meta", dict.Meta)
	if err != nil {
		return nil, err
	}
	out.Meta = meta

	for i := range dict.Schemas {
		schema, err := ctx.schema(fmt.Sprintf("schemas[%s]", dict.Schemas[i].Name), &dict.Schemas[i])
		if err != nil {
			return nil, err
		}
		out.Schemas = append(out.Schemas, schema)
	}
	return out, nil
}

// ResolveSchema returns a copy of schema with its tags replaced using refs.
func ResolveSchema(schema *dictionary.Schema, refs dictionary.References) (*dictionary.Schema, error) {
	out, err := newContext(refs).schema(schema.Name, schema)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveField returns a copy of field with its tags replaced using refs.
func ResolveField(field *dictionary.SchemaField, refs dictionary.References) (*dictionary.SchemaField, error) {
	out, err := newContext(refs).field(field.Name, field)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveMeta returns a copy of meta with its tags replaced using refs.
func ResolveMeta(meta dictionary.Meta, refs dictionary.References) (dictionary.Meta, error) {
	return newContext(refs).meta("meta", meta)
}

// ResolveTag returns the strings a single tag stands for.
func ResolveTag(tag string, refs dictionary.References) ([]string, error) {
	r, err := newContext(refs).resolve(tag)
	if err != nil {
		return nil, err
	}
	return slices.Clone(r.values), nil
}

func (c *resolutionContext) schema(path string, in *dictionary.Schema) (dictionary.Schema, error) {
	out := dictionary.Schema{
		Name:         in.Name,
		Description:  in.Description,
		Fields:       make([]dictionary.SchemaField, 0, len(in.Fields)),
		Restrictions: in.Restrictions.Clone(),
	}

	meta, err := c.meta(path+".meta", in.Meta)
	if err != nil {
		return out, err
	}
	out.Meta = meta

	for i := range in.Fields {
		field, err := c.field(fmt.Sprintf("%s.fields[%s]", path, in.Fields[i].Name), &in.Fields[i])
		if err != nil {
			return out, err
		}
		out.Fields = append(out.Fields, field)
	}
	return out, nil
}

func (c *resolutionContext) field(path string, in *dictionary.SchemaField) (dictionary.SchemaField, error) {
	out := *in

	meta, err := c.meta(path+".meta", in.Meta)
	if err != nil {
		return out, err
	}
	out.Meta = meta

	restrictions, err := c.restrictions(path+".restrictions", in.Restrictions)
	if err != nil {
		return out, err
	}
	out.Restrictions = restrictions
	return out, nil
}

func (c *resolutionContext) restrictions(path string, in dictionary.FieldRestrictions) (dictionary.FieldRestrictions, error) {
	if in == nil {
		return nil, nil
	}
	out := make(dictionary.FieldRestrictions, 0, len(in))
	for i, entry := range in {
		entryPath := path
		if len(in) > 1 {
			entryPath = fmt.Sprintf("%s[%d]", path, i)
		}

		var (
			r   dictionary.Restriction
			err error
		)
		switch v := entry.(type) {
		case *dictionary.SimpleRestriction:
			r, err = c.simple(entryPath, v)
		case *dictionary.ConditionalRestriction:
			r, err = c.conditional(entryPath, v)
		default:
			err = fmt.Errorf("%s: unsupported restriction type %T", entryPath, entry)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *resolutionContext) simple(path string, in *dictionary.SimpleRestriction) (*dictionary.SimpleRestriction, error) {
	out := &dictionary.SimpleRestriction{
		Required: in.Required,
		Empty:    in.Empty,
		Range:    in.Range.Clone(),
	}

	codeList, err := c.codeList(path+".codeList", in.CodeList)
	if err != nil {
		return nil, err
	}
	out.CodeList = codeList

	regex, err := c.regex(path+".regex", in.Regex)
	if err != nil {
		return nil, err
	}
	out.Regex = regex
	return out, nil
}

func (c *resolutionContext) conditional(path string, in *dictionary.ConditionalRestriction) (*dictionary.ConditionalRestriction, error) {
	out := &dictionary.ConditionalRestriction{
		If: dictionary.ConditionalRestrictionTest{
			Case:       in.If.Case,
			Conditions: make([]dictionary.RestrictionCondition, 0, len(in.If.Conditions)),
		},
	}

	for i, cond := range in.If.Conditions {
		matchPath := fmt.Sprintf("%s.if.conditions[%d].match", path, i)
		match, err := c.match(matchPath, &cond.Match)
		if err != nil {
			return nil, err
		}
		out.If.Conditions = append(out.If.Conditions, dictionary.RestrictionCondition{
			Fields: slices.Clone(cond.Fields),
			Match:  match,
			Case:   cond.Case,
		})
	}

	then, err := c.restrictions(path+".then", in.Then)
	if err != nil {
		return nil, err
	}
	out.Then = then

	els, err := c.restrictions(path+".else", in.Else)
	if err != nil {
		return nil, err
	}
	out.Else = els
	return out, nil
}

func (c *resolutionContext) match(path string, in *dictionary.MatchRule) (dictionary.MatchRule, error) {
	out := dictionary.MatchRule{
		Range: in.Range.Clone(),
		Count: in.Count.Clone(),
	}
	if in.Exists != nil {
		exists := *in.Exists
		out.Exists = &exists
	}

	value, err := c.value(path+".value", in.Value)
	if err != nil {
		return out, err
	}
	out.Value = value

	codeList, err := c.codeList(path+".codeList", in.CodeList)
	if err != nil {
		return out, err
	}
	out.CodeList = codeList

	regex, err := c.regex(path+".regex", in.Regex)
	if err != nil {
		return out, err
	}
	out.Regex = regex
	return out, nil
}

// codeList resolves a whole-list tag or tags among the string options.
// Numeric lists carry no tags and are copied.
func (c *resolutionContext) codeList(path string, in *dictionary.CodeList) (*dictionary.CodeList, error) {
	if in == nil {
		return nil, nil
	}
	if in.Reference != "" {
		r, err := c.resolveAt(path, in.Reference)
		if err != nil {
			return nil, err
		}
		return &dictionary.CodeList{Strings: slices.Clone(r.values)}, nil
	}
	if in.Numbers != nil {
		return in.Clone(), nil
	}
	strs, err := c.stringList(path, in.Strings)
	if err != nil {
		return nil, err
	}
	return &dictionary.CodeList{Strings: strs}, nil
}

// regex resolves a pattern tag. A pattern must stay a single string, so a
// tag that expands to a list is accepted only when the list has one entry.
func (c *resolutionContext) regex(path, in string) (string, error) {
	if !dictionary.IsReferenceTag(in) {
		return in, nil
	}
	r, err := c.resolveAt(path, in)
	if err != nil {
		return "", err
	}
	if len(r.values) != 1 {
		return "", &InvalidReferenceError{Tag: in, Reason: ReasonAmbiguousPattern, Location: path}
	}
	return r.values[0], nil
}

// value resolves tags held by a match value or a meta leaf. Strings and
// lists of strings are resolved; everything else is copied unchanged.
func (c *resolutionContext) value(path string, in any) (any, error) {
	switch v := in.(type) {
	case string:
		if !dictionary.IsReferenceTag(v) {
			return v, nil
		}
		r, err := c.resolveAt(path, v)
		if err != nil {
			return nil, err
		}
		if !r.list {
			return r.values[0], nil
		}
		return toAnySlice(r.values), nil
	case []string:
		strs, err := c.stringList(path, v)
		if err != nil {
			return nil, err
		}
		return toAnySlice(strs), nil
	case []any:
		strs, ok := allStrings(v)
		if !ok {
			return slices.Clone(v), nil
		}
		resolvedStrs, err := c.stringList(path, strs)
		if err != nil {
			return nil, err
		}
		return toAnySlice(resolvedStrs), nil
	case map[string]any:
		return c.meta(path, v)
	case dictionary.Meta:
		return c.meta(path, v)
	default:
		return in, nil
	}
}

// meta walks a meta object key by key.
func (c *resolutionContext) meta(path string, in map[string]any) (dictionary.Meta, error) {
	if in == nil {
		return nil, nil
	}
	out := make(dictionary.Meta, len(in))
	for _, key := range slices.Sorted(maps.Keys(in)) {
		v, err := c.value(path+"."+key, in[key])
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// stringList resolves every tag element of a string list, flattening tags
// that stand for lists.
func (c *resolutionContext) stringList(path string, in []string) ([]string, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !dictionary.IsReferenceTag(s) {
			out = append(out, s)
			continue
		}
		r, err := c.resolveAt(path, s)
		if err != nil {
			return nil, err
		}
		out = append(out, r.values...)
	}
	return out, nil
}

// resolveAt resolves tag and records the document location on failure.
func (c *resolutionContext) resolveAt(path, tag string) (resolved, error) {
	r, err := c.resolve(tag)
	if err != nil {
		var refErr *InvalidReferenceError
		if errors.As(err, &refErr) && refErr.Location == "" {
			refErr.Location = path
		}
		return resolved{}, err
	}
	return r, nil
}

// resolve returns the value of tag, following chained tags and flattening
// tags inside lists.
func (c *resolutionContext) resolve(tag string) (resolved, error) {
	if r, ok := c.discovered[tag]; ok {
		return r, nil
	}
	if c.visited[tag] {
		cycle := c.cycleFrom(tag)
		return resolved{}, &InvalidReferenceError{Tag: tag, Reason: ReasonCyclic, Cycle: cycle}
	}

	c.visited[tag] = true
	c.stack = append(c.stack, tag)
	defer func() {
		delete(c.visited, tag)
		c.stack = c.stack[:len(c.stack)-1]
	}()

	raw, err := c.lookup(tag)
	if err != nil {
		return resolved{}, err
	}

	var r resolved
	switch v := raw.(type) {
	case string:
		if dictionary.IsReferenceTag(v) {
			r, err = c.resolve(v)
			if err != nil {
				return resolved{}, err
			}
		} else {
			r = resolved{values: []string{v}}
		}
	case []any:
		r = resolved{values: make([]string, 0, len(v)), list: true}
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return resolved{}, &InvalidReferenceError{Tag: tag, Reason: ReasonInvalidValue}
			}
			if !dictionary.IsReferenceTag(s) {
				r.values = append(r.values, s)
				continue
			}
			inner, err := c.resolve(s)
			if err != nil {
				return resolved{}, err
			}
			r.values = append(r.values, inner.values...)
		}
	case []string:
		strs, err := c.stringList("", v)
		if err != nil {
			return resolved{}, err
		}
		r = resolved{values: strs, list: true}
	default:
		return resolved{}, &InvalidReferenceError{Tag: tag, Reason: ReasonInvalidValue}
	}

	c.discovered[tag] = r
	return r, nil
}

// lookup walks the references table along the tag's path segments.
func (c *resolutionContext) lookup(tag string) (any, error) {
	c.lookups++

	segments := strings.Split(strings.TrimPrefix(tag, dictionary.ReferenceTagPrefix), "/")
	var node any = map[string]any(c.refs)
	for _, seg := range segments {
		m, ok := asMap(node)
		if !ok || seg == "" {
			return nil, &InvalidReferenceError{Tag: tag, Reason: ReasonNotFound}
		}
		next, ok := m[seg]
		if !ok || next == nil {
			return nil, &InvalidReferenceError{Tag: tag, Reason: ReasonNotFound}
		}
		node = next
	}

	if _, ok := asMap(node); ok {
		return nil, &InvalidReferenceError{Tag: tag, Reason: ReasonNestedObject}
	}
	return node, nil
}

// cycleFrom returns the resolution stack from the first occurrence of tag,
// closed with tag itself.
func (c *resolutionContext) cycleFrom(tag string) []string {
	start := slices.Index(c.stack, tag)
	if start < 0 {
		return []string{tag}
	}
	cycle := slices.Clone(c.stack[start:])
	return append(cycle, tag)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case dictionary.References:
		return m, true
	case dictionary.Meta:
		return m, true
	default:
		return nil, false
	}
}

func allStrings(items []any) ([]string, bool) {
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

func toAnySlice(strs []string) []any {
	out := make([]any, len(strs))
	for i, s := range strs {
		out[i] = s
	}
	return out
}
