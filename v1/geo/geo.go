package geo

import (
	"fmt"
	"reflect"

	"github.com/Aleph-Alpha/odm/v1/nested"
)

// Box matches points inside the box spanned by its lower left and upper
// right corners.
func Box(lowerLeft, upperRight any) (map[string]any, error) {
	if err := validatePoint(lowerLeft, "lower left point"); err != nil {
		return nil, err
	}
	if err := validatePoint(upperRight, "upper right point"); err != nil {
		return nil, err
	}
	return Within("box", lowerLeft, upperRight), nil
}

// Circle matches points within radius of center.
func Circle(center any, radius float64) (map[string]any, error) {
	if err := validatePoint(center, "point"); err != nil {
		return nil, err
	}
	return Within("circle", center, radius), nil
}

type nearOptions struct {
	maxDistance *float64
	uniqueDocs  bool
}

// NearOption configures Near.
type NearOption func(*nearOptions)

// MaxDistance limits matches to d units from the point.
func MaxDistance(d float64) NearOption {
	return func(o *nearOptions) { o.maxDistance = &d }
}

// UniqueDocs returns a document only once even if several of its
// locations match.
func UniqueDocs() NearOption {
	return func(o *nearOptions) { o.uniqueDocs = true }
}

// Near matches documents ordered by distance from point. A plain
// "field__near" query is enough unless an option is needed.
func Near(point any, opts ...NearOption) (map[string]any, error) {
	if err := validatePoint(point, "point"); err != nil {
		return nil, err
	}

	var o nearOptions
	for _, opt := range opts {
		opt(&o)
	}

	q := map[string]any{"$near": point}
	if o.maxDistance != nil {
		q["$maxDistance"] = *o.maxDistance
	}
	if o.uniqueDocs {
		q["$uniqueDocs"] = true
	}
	return q, nil
}

// Polygon matches points inside the polygon with the given vertices. At
// least two points are required. A single argument must be a mapping of
// named points and is handled by PolygonMap.
func Polygon(points ...any) (map[string]any, error) {
	switch len(points) {
	case 0:
		return nil, ErrInvalidPolygon
	case 1:
		m, ok := nested.AsMap(points[0])
		if !ok {
			return nil, fmt.Errorf("%w: got %T", ErrInvalidPolygon, points[0])
		}
		return PolygonMap(m)
	}

	for _, p := range points {
		if err := validatePoint(p, "each point"); err != nil {
			return nil, err
		}
	}
	return Within("polygon", points...), nil
}

// PolygonMap is Polygon for vertices given as named points, each a mapping
// of two coordinates:
//
//	geo.PolygonMap(map[string]any{
//	    "a": map[string]any{"x": 0, "y": 0},
//	    "b": map[string]any{"x": 3, "y": 4},
//	    "c": map[string]any{"x": 6, "y": 0},
//	})
func PolygonMap(points map[string]any) (map[string]any, error) {
	if len(points) < 2 {
		return nil, ErrInvalidPolygon
	}
	for name, p := range points {
		m, ok := nested.AsMap(p)
		if !ok {
			return nil, fmt.Errorf("%w: each point (%q)", ErrPointType, name)
		}
		if len(m) != 2 {
			return nil, fmt.Errorf("%w: each point (%q)", ErrInvalidPoint, name)
		}
	}
	return map[string]any{"$within": map[string]any{"$polygon": points}}, nil
}

// Within matches points inside shape, e.g. "box", "circle" or "polygon".
func Within(shape string, bounds ...any) map[string]any {
	list := make([]any, len(bounds))
	copy(list, bounds)
	return map[string]any{"$within": map[string]any{"$" + shape: list}}
}

func validatePoint(point any, name string) error {
	if point == nil {
		return fmt.Errorf("%w: %s", ErrPointType, name)
	}
	v := reflect.ValueOf(point)
	if k := v.Kind(); k != reflect.Slice && k != reflect.Array {
		return fmt.Errorf("%w: %s is %T", ErrPointType, name, point)
	}
	if v.Len() != 2 {
		return fmt.Errorf("%w: %s has %d", ErrInvalidPoint, name, v.Len())
	}
	return nil
}
