package query

import "context"

// Sort directions.
const (
	Ascending  = 1
	Descending = -1
)

// SortField is one key of a sort specification.
type SortField struct {
	Name      string
	Direction int
}

// Cursor is a sequence of raw documents returned by a storage find.
//
// Sort, Limit and Skip configure the cursor in place and return it; they must
// be called before the first Next. Next returns io.EOF once the sequence is
// exhausted.
//
//go:generate mockgen -source=interface.go -destination=mock_cursor.go -package=query
type Cursor interface {
	// Count returns the number of matching documents. When withLimitAndSkip
	// is true the configured limit and skip are taken into account.
	Count(ctx context.Context, withLimitAndSkip bool) (int64, error)

	Sort(fields ...SortField) Cursor
	Limit(n int64) Cursor
	Skip(n int64) Cursor

	// Clone returns an unexecuted copy carrying the same query and settings.
	Clone() Cursor

	Next(ctx context.Context) (map[string]any, error)

	// Distinct returns the distinct values of field across matching documents.
	Distinct(ctx context.Context, field string) ([]any, error)

	Close(ctx context.Context) error
}
