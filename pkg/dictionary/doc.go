// Package dictionary provides the typed model of a Lectern data dictionary.
//
// A Dictionary is a named, versioned collection of Schemas. Each Schema is a
// table definition made of SchemaFields, and each field may carry restrictions
// that data values must satisfy.
//
// # Core Types
//
// Dictionary: Root document with name, version, schemas, references and meta
//
// Schema: Table definition with fields and schema level restrictions
// (uniqueKey, foreignKey)
//
// SchemaField: Field definition with value type, array shape and restrictions
//
// Restriction: Sealed union of SimpleRestriction (required, empty, codeList,
// regex, range) and ConditionalRestriction (if/then/else)
//
// MatchRule: Predicate channels (value, codeList, regex, range, exists, count)
// used by the conditions of a ConditionalRestriction
//
// DataRecord: One row of submitted data keyed by field name
//
// # Decoding
//
// Dictionaries are decoded from generic documents so the same code serves
// JSON and YAML sources:
//
//	var raw map[string]any
//	_ = yaml.Unmarshal(data, &raw)
//	dict, err := dictionary.Decode(raw)
//	if err != nil {
//	    var defErr *dictionary.DefinitionError
//	    if errors.As(err, &defErr) {
//	        for _, fe := range defErr.Errors {
//	            fmt.Println(fe.Path, fe.Message)
//	        }
//	    }
//	}
//
// Dictionary also implements json.Unmarshaler and json.Marshaler, and
// marshalling produces the same document shape that was decoded.
//
// # Reference Tags
//
// String values of the form "#/path/to/value" are reference tags pointing
// into the dictionary's references section. They are replaced by package
// references before any validation runs.
package dictionary
