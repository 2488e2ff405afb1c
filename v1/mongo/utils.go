package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// normalize converts decoded BSON values into the plain Go values the model
// layer works with: documents become map[string]any, arrays become []any
// and datetimes become UTC time.Time.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		return normalizeDocument(t)
	case map[string]any:
		return normalizeDocument(t)
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		return normalizeSlice(t)
	case []any:
		return normalizeSlice(t)
	case primitive.DateTime:
		return t.Time().UTC()
	}
	return v
}

func normalizeDocument(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = normalize(v)
	}
	return out
}

func normalizeSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = normalize(v)
	}
	return out
}
