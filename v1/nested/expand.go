package nested

import (
	"slices"
	"strings"
)

// Expand converts "__"-delimited keys into nested mappings and returns a new
// mapping; values is not modified.
//
//	{"a__b": 1, "a__c__d": 2, "e": 3} -> {"a": {"b": 1, "c": {"d": 2}}, "e": 3}
//
// Keys beginning or ending with "__" are copied verbatim. Mapping values are
// expanded recursively. When a plain key and an expanded key share a parent,
// the mappings are merged; a non-mapping parent is replaced.
func Expand(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := values[k]
		if !strings.Contains(k, "__") || strings.HasPrefix(k, "__") || strings.HasSuffix(k, "__") {
			place(out, k, v)
			continue
		}
		parent, embedded, _ := strings.Cut(k, "__")
		place(out, parent, map[string]any{embedded: v})
	}

	for k, v := range out {
		if m, ok := AsMap(v); ok {
			out[k] = Expand(m)
		}
	}
	return out
}

// place stores v under k, merging with an existing mapping when both sides
// are mappings.
func place(out map[string]any, k string, v any) {
	existing, ok := mutable(out[k])
	incoming, isMap := AsMap(v)
	if !ok || !isMap {
		if isMap {
			v = Copy(incoming)
		}
		out[k] = v
		return
	}
	merge(existing, Copy(incoming))
}
