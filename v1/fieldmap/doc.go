// Package fieldmap translates attribute names used in application code into
// the field names stored in MongoDB documents.
//
// A Map is the per-model alias table. Keys are public, dot-delimited names
// and values are the dot-delimited names used in storage:
//
//	fields := fieldmap.Map{
//	    "id":           "_id",
//	    "address.city": "addr.c",
//	    "name":         "profile.name",
//	}
//
// Application code may address embedded documents with "__" instead of ".",
// which keeps names usable as identifiers, and may suffix a name with a
// comparison operator:
//
//	fields.Resolve(map[string]any{"address__city": "Berlin"})
//	// {"addr": {"c": "Berlin"}}
//
//	fields.Resolve(map[string]any{"age__gte": 18, "name__not__in": []any{"x"}}, fieldmap.WithOperators())
//	// {"age": {"$gte": 18}, "profile": {"name": {"$not": {"$in": ["x"]}}}}
//
//	fields.Resolve(map[string]any{"address__city__ne": "Berlin"}, fieldmap.WithOperators(), fieldmap.Flatten())
//	// {"addr.c": {"$ne": "Berlin"}}
//
// # Resolution
//
// Resolve works in two passes. The first pass looks every name up in the
// table after replacing "__" with ".". If any name addresses an embedded
// document, the result is then expanded into nested mappings and the
// top-level names are looked up again, which catches aliases that only
// become visible once the nesting exists. Flatten skips the second pass and
// keeps dotted names at the top level instead, the form MongoDB expects in
// update operators.
//
// The values of "$and" and "$or" are lists of filters, each resolved with
// the same options. The connective keys themselves are never aliased.
//
// # Operators
//
// The recognised operator suffixes are all, exists, gt, gte, in, lt, lte,
// ne, near, nin and size. A "__not" segment in front of the operator wraps
// the condition in "$not". Several operators on the same field are merged
// into one condition.
//
// There is no escaping: a field whose last "__" segment is an operator name
// (a field literally called "size", addressed as "box__size") is read as an
// operator. Map such a field to another storage name in the table and use
// the alias in application code.
package fieldmap
