package query

import (
	"fmt"
	"reflect"

	"github.com/Aleph-Alpha/odm/v1/fieldmap"
	"github.com/Aleph-Alpha/odm/v1/nested"
)

// Q is a composable filter. The zero value matches every document.
//
// A Q holds public attribute names; they are translated to storage names
// when the owning model runs the query. Q values are never modified after
// construction, so they can be shared and combined freely.
type Q struct {
	filter map[string]any
}

// New returns a Q matching fields. Names may use "__" for embedded
// documents and operator suffixes, e.g. "age__gte".
func New(fields map[string]any) Q {
	return Q{filter: nested.Copy(fields)}
}

// Filter returns a copy of the filter document.
func (q Q) Filter() map[string]any {
	if q.filter == nil {
		return map[string]any{}
	}
	return nested.Copy(q.filter)
}

// IsZero reports whether q has no conditions.
func (q Q) IsZero() bool {
	return len(q.filter) == 0
}

// And combines q and other so that both must match.
func (q Q) And(other Q) Q {
	return q.combine(other, fieldmap.And)
}

// Or combines q and other so that either may match.
func (q Q) Or(other Q) Q {
	return q.combine(other, fieldmap.Or)
}

// Combine joins q with other under connective, which must be "$and" or
// "$or". other must be a Q or *Q; anything else yields ErrNotFilter.
func (q Q) Combine(other any, connective string) (Q, error) {
	if !fieldmap.IsLogical(connective) {
		return Q{}, fmt.Errorf("%w: %q", ErrUnknownConnective, connective)
	}
	switch o := other.(type) {
	case Q:
		return q.combine(o, connective), nil
	case *Q:
		if o != nil {
			return q.combine(*o, connective), nil
		}
	}
	return Q{}, fmt.Errorf("%w: cannot combine with %T", ErrNotFilter, other)
}

func (q Q) combine(other Q, connective string) Q {
	if reflect.DeepEqual(q.Filter(), other.Filter()) {
		return q
	}

	if len(q.filter) == 1 {
		if list, ok := clauses(q.filter[connective]); ok {
			for _, existing := range list {
				if reflect.DeepEqual(existing, other.filter) {
					return q
				}
			}
			children := make([]any, 0, len(list)+1)
			for _, existing := range list {
				children = append(children, existing)
			}
			children = append(children, other.Filter())
			return Q{filter: map[string]any{connective: children}}
		}
	}

	return Q{filter: map[string]any{
		connective: []any{q.Filter(), other.Filter()},
	}}
}

// clauses returns the operands of a logical connective as a []any.
func clauses(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []map[string]any:
		out := make([]any, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}
