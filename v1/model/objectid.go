package model

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Aleph-Alpha/odm/v1/fieldmap"
	"github.com/Aleph-Alpha/odm/v1/nested"
)

var objectIDType = reflect.TypeFor[primitive.ObjectID]()

// GuaranteeObjectID converts value to a primitive.ObjectID.
//
// Hex strings are parsed. Operator mappings such as {"$in": [...]} have
// each value converted, including the elements of lists, while booleans
// (for $exists) pass through. nil is returned unchanged. Anything else
// fails with ErrInvalidObjectID.
func GuaranteeObjectID(value any) (any, error) {
	switch v := value.(type) {
	case nil, primitive.ObjectID:
		return v, nil
	case string:
		return parseObjectID(v)
	}

	m, ok := nested.AsMap(value)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidObjectID, value)
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		converted, err := convertOperand(v)
		if err != nil {
			return nil, err
		}
		out[k] = converted
	}
	return out, nil
}

func convertOperand(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, primitive.ObjectID:
		return t, nil
	case string:
		return parseObjectID(t)
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			id, err := parseObjectID(s)
			if err != nil {
				return nil, err
			}
			out[i] = id
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			id, err := GuaranteeObjectID(item)
			if err != nil {
				return nil, err
			}
			out[i] = id
		}
		return out, nil
	case primitive.A:
		return convertOperand([]any(t))
	}
	return GuaranteeObjectID(v)
}

func parseObjectID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q: %w", ErrInvalidObjectID, s, err)
	}
	return id, nil
}

// coerceIDs converts the _id conditions of a resolved filter, including
// those nested in $and and $or.
func coerceIDs(filter map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(filter))
	for k, v := range filter {
		switch {
		case k == IDField:
			id, err := GuaranteeObjectID(v)
			if err != nil {
				return nil, err
			}
			out[k] = id
		case fieldmap.IsLogical(k):
			list, err := coerceLogical(v)
			if err != nil {
				return nil, err
			}
			out[k] = list
		default:
			out[k] = v
		}
	}
	return out, nil
}

func coerceLogical(v any) (any, error) {
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []map[string]any:
		items = make([]any, len(list))
		for i, f := range list {
			items[i] = f
		}
	default:
		return v, nil
	}

	out := make([]any, len(items))
	for i, item := range items {
		sub, ok := nested.AsMap(item)
		if !ok {
			out[i] = item
			continue
		}
		coerced, err := coerceIDs(sub)
		if err != nil {
			return nil, err
		}
		out[i] = coerced
	}
	return out, nil
}
