// Package nested provides helpers for reading and rewriting values inside
// nested documents.
//
// Documents are represented as map[string]any trees, the shape produced by
// decoding a BSON document into a map. Paths into those trees use "." as the
// delimiter (e.g. "address.city"). bson.M and bson.D values are accepted
// wherever a mapping is read, so raw driver output can be passed in directly.
//
// # Reading and removing
//
//	doc := map[string]any{"a": map[string]any{"b": 1, "c": 2}}
//
//	v, err := nested.Get(doc, "a.b") // 1, nil
//	_, err = nested.Get(doc, "a.x")  // *KeyError{Key: "a.x"}
//
//	doc, err = nested.Remove(doc, "a.b") // {"a": {"c": 2}}
//
// Lookup failures always report the full path that was requested, never the
// segment where the lookup stopped.
//
// # Merging
//
// Merge applies a partial document onto another one. Mappings are merged
// recursively, anything else overwrites:
//
//	nested.Merge(map[string]any{"a": map[string]any{"b": 1}},
//	    map[string]any{"a": map[string]any{"c": 2}})
//	// {"a": {"b": 1, "c": 2}}
//
// # Expanding
//
// Expand turns "__"-delimited keys into nested mappings:
//
//	nested.Expand(map[string]any{"a__b": 1, "a__c": 2})
//	// {"a": {"b": 1, "c": 2}}
//
// Keys that start or end with "__" are left alone.
package nested
