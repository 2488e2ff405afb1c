package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/Aleph-Alpha/odm/v1/fieldmap"
)

// Set is a lazily materialised result set over a Cursor.
//
// Documents are pulled from the cursor only as far as a caller asks for
// them and are cached, so indexing the same position twice costs a single
// fetch. Limit, Skip and Sort return new sets over cloned cursors and leave
// the receiver untouched.
//
// A Set is not safe for concurrent use.
type Set[T any] struct {
	cursor Cursor
	fields fieldmap.Map
	build  func(map[string]any) (T, error)

	count *int64
	items []T
	done  bool
}

// NewSet wraps cursor. fields resolves the names given to Sort and
// Distinct, and build converts every raw document into a T.
func NewSet[T any](cursor Cursor, fields fieldmap.Map, build func(map[string]any) (T, error)) *Set[T] {
	return &Set[T]{
		cursor: cursor,
		fields: fields,
		build:  build,
	}
}

// Documents wraps cursor in a set that yields the raw documents.
func Documents(cursor Cursor, fields fieldmap.Map) *Set[map[string]any] {
	return NewSet(cursor, fields, func(doc map[string]any) (map[string]any, error) {
		return doc, nil
	})
}

// Count returns the number of documents in the set, honouring limit and
// skip. The first result is cached.
func (s *Set[T]) Count(ctx context.Context) (int64, error) {
	if s.count == nil {
		n, err := s.cursor.Count(ctx, true)
		if err != nil {
			return 0, err
		}
		s.count = &n
	}
	return *s.count, nil
}

// At returns the item at position i.
func (s *Set[T]) At(ctx context.Context, i int) (T, error) {
	var zero T
	if i < 0 {
		return zero, ErrNegativeIndex
	}

	n, err := s.Count(ctx)
	if err != nil {
		return zero, err
	}
	if int64(i) >= n {
		return zero, fmt.Errorf("%w: index %d with %d items", ErrIndexOutOfRange, i, n)
	}

	if err := s.fillTo(ctx, i+1); err != nil {
		return zero, err
	}
	if i >= len(s.items) {
		return zero, fmt.Errorf("%w: cursor ended after %d items", ErrIndexOutOfRange, len(s.items))
	}
	return s.items[i], nil
}

// Slice returns the items in [start, stop). A negative stop means the end
// of the set. Bounds past the end are clamped.
func (s *Set[T]) Slice(ctx context.Context, start, stop int) ([]T, error) {
	if start < 0 {
		return nil, ErrNegativeIndex
	}

	bound := stop
	if stop < 0 {
		n, err := s.Count(ctx)
		if err != nil {
			return nil, err
		}
		bound = int(n)
	}

	if err := s.fillTo(ctx, bound); err != nil {
		return nil, err
	}

	bound = min(bound, len(s.items))
	start = min(start, bound)
	out := make([]T, bound-start)
	copy(out, s.items[start:bound])
	return out, nil
}

// All returns every item in the set.
func (s *Set[T]) All(ctx context.Context) ([]T, error) {
	return s.Slice(ctx, 0, -1)
}

// Iter yields the items in order, fetching as it goes. Iteration stops at
// the first error, which is yielded with a zero item.
func (s *Set[T]) Iter(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i := 0; ; i++ {
			if err := s.fillTo(ctx, i+1); err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if i >= len(s.items) {
				return
			}
			if !yield(s.items[i], nil) {
				return
			}
		}
	}
}

// Limit returns a set holding at most n documents.
func (s *Set[T]) Limit(n int64) *Set[T] {
	return s.derive(s.cursor.Clone().Limit(n))
}

// Skip returns a set that starts n documents later.
func (s *Set[T]) Skip(n int64) *Set[T] {
	return s.derive(s.cursor.Clone().Skip(n))
}

// Sort returns a set ordered by keys. Keys sort ascending unless prefixed
// with "-":
//
//	set.Sort("grade", "-score")
func (s *Set[T]) Sort(keys ...string) *Set[T] {
	return s.derive(s.cursor.Clone().Sort(ParseSort(s.fields, keys...)...))
}

// Distinct returns the distinct values of key across the set.
func (s *Set[T]) Distinct(ctx context.Context, key string) ([]any, error) {
	return s.cursor.Distinct(ctx, s.fields.Name(key))
}

// Close releases the underlying cursor.
func (s *Set[T]) Close(ctx context.Context) error {
	return s.cursor.Close(ctx)
}

func (s *Set[T]) derive(cursor Cursor) *Set[T] {
	return NewSet(cursor, s.fields, s.build)
}

// fillTo pulls documents until n items are cached or the cursor ends.
func (s *Set[T]) fillTo(ctx context.Context, n int) error {
	for len(s.items) < n && !s.done {
		doc, err := s.cursor.Next(ctx)
		if errors.Is(err, io.EOF) {
			s.done = true
			break
		}
		if err != nil {
			return err
		}

		item, err := s.build(doc)
		if err != nil {
			return err
		}
		s.items = append(s.items, item)
	}
	return nil
}

// ParseSort turns "-name" style keys into sort fields with storage names.
func ParseSort(fields fieldmap.Map, keys ...string) []SortField {
	out := make([]SortField, 0, len(keys))
	for _, key := range keys {
		direction := Ascending
		if name, ok := strings.CutPrefix(key, "-"); ok {
			key, direction = name, Descending
		}
		out = append(out, SortField{Name: fields.Name(key), Direction: direction})
	}
	return out
}
