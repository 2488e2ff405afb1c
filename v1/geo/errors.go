package geo

import "errors"

var (
	// ErrPointType is returned when a point is not a list of coordinates.
	ErrPointType = errors.New("geo: point must be a list containing exactly 2 elements")

	// ErrInvalidPoint is returned when a point does not hold exactly two
	// coordinates.
	ErrInvalidPoint = errors.New("geo: point must contain exactly 2 elements")

	// ErrInvalidPolygon is returned when a polygon is given fewer than two
	// points, or points that are neither a list nor a mapping.
	ErrInvalidPolygon = errors.New("geo: points must either be a list of points or a mapping of points")
)

// IsInvalidPoint checks if the error is caused by a malformed point.
func IsInvalidPoint(err error) bool {
	return errors.Is(err, ErrInvalidPoint) || errors.Is(err, ErrPointType)
}
