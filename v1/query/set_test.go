package query

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/odm/v1/fieldmap"
)

// sliceCursor serves documents from memory and records how many were read.
type sliceCursor struct {
	docs  []map[string]any
	pos   int
	reads int
}

func (c *sliceCursor) Count(context.Context, bool) (int64, error) {
	return int64(len(c.docs)), nil
}

func (c *sliceCursor) Sort(...SortField) Cursor { return c }

func (c *sliceCursor) Limit(int64) Cursor { return c }

func (c *sliceCursor) Skip(int64) Cursor { return c }

func (c *sliceCursor) Clone() Cursor { return &sliceCursor{docs: c.docs} }

func (c *sliceCursor) Distinct(context.Context, string) ([]any, error) { return nil, nil }

func (c *sliceCursor) Close(context.Context) error { return nil }

func (c *sliceCursor) Next(context.Context) (map[string]any, error) {
	if c.pos >= len(c.docs) {
		return nil, io.EOF
	}
	c.reads++
	doc := c.docs[c.pos]
	c.pos++
	return doc, nil
}

func newSliceCursor(n int) *sliceCursor {
	c := &sliceCursor{}
	for i := 0; i < n; i++ {
		c.docs = append(c.docs, map[string]any{"n": i})
	}
	return c
}

func TestSet_CountIsCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	cursor := NewMockCursor(ctrl)
	cursor.EXPECT().Count(gomock.Any(), true).Return(int64(3), nil).Times(1)

	set := Documents(cursor, nil)
	for i := 0; i < 2; i++ {
		n, err := set.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	}
}

func TestSet_AtFetchesLazily(t *testing.T) {
	ctx := context.Background()
	cursor := newSliceCursor(5)
	set := Documents(cursor, nil)

	doc, err := set.At(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 1}, doc)
	assert.Equal(t, 2, cursor.reads)

	doc, err = set.At(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 0}, doc)
	assert.Equal(t, 2, cursor.reads)
}

func TestSet_AtBounds(t *testing.T) {
	ctx := context.Background()
	set := Documents(newSliceCursor(2), nil)

	_, err := set.At(ctx, -1)
	assert.ErrorIs(t, err, ErrNegativeIndex)

	_, err = set.At(ctx, 2)
	assert.True(t, IsIndexOutOfRange(err))
}

func TestSet_Slice(t *testing.T) {
	ctx := context.Background()
	set := Documents(newSliceCursor(5), nil)

	got, err := set.Slice(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"n": 1}, {"n": 2}}, got)

	got, err = set.Slice(ctx, 3, -1)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"n": 3}, {"n": 4}}, got)

	got, err = set.Slice(ctx, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"n": 4}}, got)

	_, err = set.Slice(ctx, -1, 2)
	assert.ErrorIs(t, err, ErrNegativeIndex)
}

func TestSet_IterAndAll(t *testing.T) {
	ctx := context.Background()
	set := NewSet(newSliceCursor(3), nil, func(doc map[string]any) (int, error) {
		return doc["n"].(int), nil
	})

	var seen []int
	for n, err := range set.Iter(ctx) {
		require.NoError(t, err)
		seen = append(seen, n)
	}
	assert.Equal(t, []int{0, 1, 2}, seen)

	all, err := set.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, all)
}

func TestSet_BuildErrorStopsIteration(t *testing.T) {
	boom := errors.New("boom")
	set := NewSet(newSliceCursor(3), nil, func(doc map[string]any) (int, error) {
		if doc["n"].(int) == 1 {
			return 0, boom
		}
		return doc["n"].(int), nil
	})

	var errs []error
	count := 0
	for _, err := range set.Iter(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		count++
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, []error{boom}, errs)
}

func TestSet_ModifiersCloneTheCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	cursor := NewMockCursor(ctrl)
	clone := NewMockCursor(ctrl)
	fields := fieldmap.Map{"fake": "real", "id": "_id"}
	set := Documents(cursor, fields)

	cursor.EXPECT().Clone().Return(clone)
	clone.EXPECT().Limit(int64(2)).Return(clone)
	assert.NotSame(t, set, set.Limit(2))

	cursor.EXPECT().Clone().Return(clone)
	clone.EXPECT().Skip(int64(1)).Return(clone)
	set.Skip(1)

	cursor.EXPECT().Clone().Return(clone)
	clone.EXPECT().Sort(
		SortField{Name: "real", Direction: Ascending},
		SortField{Name: "_id", Direction: Descending},
		SortField{Name: "a.b", Direction: Ascending},
	).Return(clone)
	set.Sort("fake", "-id", "a__b")
}

func TestSet_DistinctResolvesName(t *testing.T) {
	ctrl := gomock.NewController(t)
	cursor := NewMockCursor(ctrl)
	set := Documents(cursor, fieldmap.Map{"fake": "real"})

	cursor.EXPECT().Distinct(gomock.Any(), "real").Return([]any{1, 2}, nil)
	cursor.EXPECT().Distinct(gomock.Any(), "a.b").Return(nil, nil)
	cursor.EXPECT().Distinct(gomock.Any(), "plain").Return(nil, nil)

	values, err := set.Distinct(context.Background(), "fake")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, values)

	_, err = set.Distinct(context.Background(), "a__b")
	require.NoError(t, err)
	_, err = set.Distinct(context.Background(), "plain")
	require.NoError(t, err)
}

func TestParseSort(t *testing.T) {
	assert.Equal(t,
		[]SortField{{Name: "a", Direction: Ascending}, {Name: "b", Direction: Descending}},
		ParseSort(nil, "a", "-b"))
}
