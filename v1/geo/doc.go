// Package geo builds the geospatial filter values used with 2d-indexed
// fields.
//
// The helpers return the value to store under a field name in a query:
//
//	near, err := geo.Near([]float64{13.4, 52.5}, geo.MaxDistance(0.5))
//	q := query.New(map[string]any{"location": near})
//	// {"location": {"$near": [13.4, 52.5], "$maxDistance": 0.5}}
//
//	box, err := geo.Box([]float64{0, 0}, []float64{10, 10})
//	// {"$within": {"$box": [[0, 0], [10, 10]]}}
//
// A point is any slice or array holding exactly two coordinates. Points of
// the wrong kind fail with ErrPointType, points of the wrong length with
// ErrInvalidPoint.
package geo
