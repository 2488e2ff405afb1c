package nested

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Get returns the value stored at the dotted path key.
//
// A key that exists verbatim at the current level wins over its dotted
// interpretation, so {"a.b": 1} resolves "a.b" to 1. Any miss is reported
// as a *KeyError carrying the original key.
func Get(values map[string]any, key string) (any, error) {
	v, ok := lookup(values, key)
	if !ok {
		return nil, &KeyError{Key: key}
	}
	return v, nil
}

func lookup(values map[string]any, key string) (any, bool) {
	if v, ok := values[key]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	child, ok := AsMap(values[head])
	if !ok {
		return nil, false
	}
	return lookup(child, rest)
}

// Has reports whether Get would succeed.
func Has(values map[string]any, key string) bool {
	_, ok := lookup(values, key)
	return ok
}

// Set stores value at the dotted path key, creating intermediate mappings
// as needed. Intermediate values that are not mappings are replaced.
func Set(values map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	parent := values
	for _, part := range parts[:len(parts)-1] {
		child, ok := mutable(parent[part])
		if !ok {
			child = map[string]any{}
			parent[part] = child
		}
		parent = child
	}
	parent[parts[len(parts)-1]] = value
}

// Remove deletes the value at the dotted path key from original and returns
// the modified mapping.
func Remove(original any, key string) (map[string]any, error) {
	values, ok := mutable(original)
	if !ok {
		return nil, fmt.Errorf("%w: cannot remove %q from %T", ErrNotMapping, key, original)
	}

	if _, ok := values[key]; ok {
		delete(values, key)
		return values, nil
	}

	parts := strings.Split(key, ".")
	parent := values
	for _, part := range parts[:len(parts)-1] {
		child, ok := mutable(parent[part])
		if !ok {
			return nil, &KeyError{Key: key}
		}
		parent = child
	}

	leaf := parts[len(parts)-1]
	if _, ok := parent[leaf]; !ok {
		return nil, &KeyError{Key: key}
	}
	delete(parent, leaf)
	return values, nil
}

// Merge recursively applies updates onto original and returns original.
//
// For every key whose update value is a mapping, the matching sub-mapping of
// original is merged into (and created if absent). Every other value
// overwrites the existing one.
func Merge(original, updates any) (map[string]any, error) {
	dst, ok := mutable(original)
	if !ok {
		return nil, fmt.Errorf("%w: cannot merge into %T", ErrNotMapping, original)
	}
	src, ok := AsMap(updates)
	if !ok {
		return nil, fmt.Errorf("%w: cannot merge from %T", ErrNotMapping, updates)
	}
	merge(dst, src)
	return dst, nil
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := AsMap(v)
		if !ok {
			dst[k] = v
			continue
		}
		child, ok := mutable(dst[k])
		if !ok {
			child = make(map[string]any, len(sub))
			dst[k] = child
		}
		merge(child, sub)
	}
}

// AsMap returns v as a map[string]any when v is any of the mapping shapes
// produced by the bson package. bson.D values are copied into a new map;
// the other shapes share storage with v.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case primitive.M:
		return map[string]any(m), m != nil
	case bson.D:
		out := make(map[string]any, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out, true
	}
	return nil, false
}

// mutable is AsMap restricted to shapes whose writes are visible to the
// caller.
func mutable(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case primitive.M:
		return map[string]any(m), m != nil
	}
	return nil, false
}

// Copy returns a deep copy of values. Nested mappings and slices are copied,
// leaf values are shared.
func Copy(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Copy(t)
	case primitive.M:
		return Copy(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = Copy(e)
		}
		return out
	}
	return v
}
