package fieldmap

import (
	"slices"
	"strings"

	"github.com/Aleph-Alpha/odm/v1/nested"
)

// Map is an alias table from public dotted names to storage dotted names.
// A Map must not be modified once it is in use.
type Map map[string]string

// Resolve translates the names in fields to storage names and returns a new
// mapping. fields is never modified.
func (m Map) Resolve(fields map[string]any, opts ...Option) map[string]any {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return m.resolve(fields, o)
}

func (m Map) resolve(fields map[string]any, o options) map[string]any {
	if o.operators {
		fields = extractOperators(fields)
	}

	secondPass := false
	mapped := make(map[string]any, len(fields))
	for _, k := range sortedKeys(fields) {
		v := fields[k]
		if IsLogical(k) {
			mapped[k] = m.resolveLogical(v, o)
			continue
		}

		if strings.Contains(k, "__") {
			secondPass = true
		}
		name := k
		if target, ok := m[strings.ReplaceAll(k, "__", ".")]; ok {
			name = target
		}
		if strings.Contains(name, ".") {
			secondPass = true
		}
		put(mapped, strings.ReplaceAll(name, ".", "__"), v)
	}

	switch {
	case o.flatten:
		out := make(map[string]any, len(mapped))
		for _, k := range sortedKeys(mapped) {
			put(out, flattenKey(k), mapped[k])
		}
		return out

	case secondPass:
		expanded := nested.Expand(mapped)
		out := make(map[string]any, len(expanded))
		for _, k := range sortedKeys(expanded) {
			target, ok := m[k]
			if !ok || IsLogical(k) {
				put(out, k, expanded[k])
				continue
			}
			putPath(out, target, expanded[k])
		}
		return out
	}

	return mapped
}

func (m Map) resolveLogical(v any, o options) any {
	switch list := v.(type) {
	case []map[string]any:
		out := make([]map[string]any, len(list))
		for i, f := range list {
			out[i] = m.resolve(f, o)
		}
		return out
	case []any:
		out := make([]any, len(list))
		for i, f := range list {
			if sub, ok := nested.AsMap(f); ok {
				out[i] = m.resolve(sub, o)
				continue
			}
			out[i] = f
		}
		return out
	}
	return v
}

// Name returns the flattened storage name for a single public name, which
// may use either "." or "__" to address embedded documents.
func (m Map) Name(name string) string {
	for k := range m.Resolve(map[string]any{strings.ReplaceAll(name, ".", "__"): nil}, Flatten()) {
		return k
	}
	return name
}

// Path returns the storage path segments for a single public name.
func (m Map) Path(name string) []string {
	return strings.Split(m.Name(name), ".")
}

// Merge returns a new Map holding the entries of m overlaid with other.
func (m Map) Merge(other Map) Map {
	out := make(Map, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// extractOperators rewrites "name__op" keys into {"name": {"$op": value}}.
func extractOperators(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, k := range sortedKeys(fields) {
		v := fields[k]
		i := strings.LastIndex(k, "__")
		if i <= 0 || !IsOperator(k[i+2:]) {
			put(out, k, v)
			continue
		}

		name := k[:i]
		condition := map[string]any{"$" + k[i+2:]: v}
		if base, ok := strings.CutSuffix(name, "__not"); ok && base != "" {
			name = base
			condition = map[string]any{"$not": condition}
		}
		put(out, name, condition)
	}
	return out
}

// flattenKey replaces the "__" delimiters inside k with ".". The first and
// last characters are never rewritten so leading and trailing "__" survive.
func flattenKey(k string) string {
	if len(k) < 3 {
		return k
	}
	return k[:1] + strings.ReplaceAll(k[1:len(k)-1], "__", ".") + k[len(k)-1:]
}

// put stores v under k, merging operator mappings that land on the same key.
func put(out map[string]any, k string, v any) {
	existing, ok := out[k]
	if !ok {
		out[k] = v
		return
	}
	left, lok := nested.AsMap(existing)
	right, rok := nested.AsMap(v)
	if !lok || !rok {
		out[k] = v
		return
	}
	merged := nested.Copy(left)
	if _, err := nested.Merge(merged, right); err == nil {
		out[k] = merged
	}
}

// putPath stores v at the dotted path, merging into mappings already there.
func putPath(out map[string]any, path string, v any) {
	head, rest, found := strings.Cut(path, ".")
	if !found {
		put(out, head, v)
		return
	}
	child, ok := nested.AsMap(out[head])
	if ok {
		child = nested.Copy(child)
	} else {
		child = map[string]any{}
	}
	putPath(child, rest, v)
	out[head] = child
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
