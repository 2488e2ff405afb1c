package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox(t *testing.T) {
	q, err := Box([]int{1, 2}, []int{3, 4})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"$within": map[string]any{"$box": []any{[]int{1, 2}, []int{3, 4}}},
	}, q)
}

func TestBoxInvalidPoints(t *testing.T) {
	_, err := Box(1, []int{3, 4})
	assert.ErrorIs(t, err, ErrPointType)

	_, err = Box([]int{1, 2}, []int{3, 4, 5})
	assert.ErrorIs(t, err, ErrInvalidPoint)
	assert.True(t, IsInvalidPoint(err))
}

func TestCircle(t *testing.T) {
	q, err := Circle([2]float64{1, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"$within": map[string]any{"$circle": []any{[2]float64{1, 2}, 3.0}},
	}, q)

	_, err = Circle([]int{1}, 3)
	assert.ErrorIs(t, err, ErrInvalidPoint)
}

func TestNear(t *testing.T) {
	tests := []struct {
		name string
		opts []NearOption
		want map[string]any
	}{
		{
			name: "point only",
			want: map[string]any{"$near": []int{1, 2}},
		},
		{
			name: "max distance",
			opts: []NearOption{MaxDistance(5)},
			want: map[string]any{"$near": []int{1, 2}, "$maxDistance": 5.0},
		},
		{
			name: "unique docs",
			opts: []NearOption{MaxDistance(5), UniqueDocs()},
			want: map[string]any{"$near": []int{1, 2}, "$maxDistance": 5.0, "$uniqueDocs": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Near([]int{1, 2}, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}

	_, err := Near("1,2")
	assert.ErrorIs(t, err, ErrPointType)
}

func TestPolygon(t *testing.T) {
	q, err := Polygon([]int{1, 2}, []int{3, 4}, []int{5, 6})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"$within": map[string]any{"$polygon": []any{[]int{1, 2}, []int{3, 4}, []int{5, 6}}},
	}, q)

	_, err = Polygon([]int{1, 2}, []int{3})
	assert.ErrorIs(t, err, ErrInvalidPoint)

	_, err = Polygon()
	assert.ErrorIs(t, err, ErrInvalidPolygon)

	_, err = Polygon([]int{1, 2})
	assert.ErrorIs(t, err, ErrInvalidPolygon)
}

func TestPolygonMap(t *testing.T) {
	points := map[string]any{
		"a": map[string]any{"x": 1, "y": 2},
		"b": map[string]any{"x": 3, "y": 4},
	}

	q, err := Polygon(points)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$within": map[string]any{"$polygon": points}}, q)

	_, err = PolygonMap(map[string]any{"a": map[string]any{"x": 1, "y": 2}})
	assert.ErrorIs(t, err, ErrInvalidPolygon)

	_, err = PolygonMap(map[string]any{"a": []int{1, 2}, "b": []int{3, 4}})
	assert.ErrorIs(t, err, ErrPointType)

	_, err = PolygonMap(map[string]any{"a": map[string]any{"x": 1}, "b": map[string]any{"x": 3, "y": 4}})
	assert.ErrorIs(t, err, ErrInvalidPoint)
}

func TestWithin(t *testing.T) {
	assert.Equal(t,
		map[string]any{"$within": map[string]any{"$center": []any{[]int{0, 0}, 1}}},
		Within("center", []int{0, 0}, 1),
	)
}
