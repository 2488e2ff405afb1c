package query

import "errors"

var (
	// ErrNotFilter is returned when a Q is combined with a value that is not a Q.
	ErrNotFilter = errors.New("query: can only combine with another Q")

	// ErrUnknownConnective is returned for connectives other than "$and" and "$or".
	ErrUnknownConnective = errors.New("query: unknown logical connective")

	// ErrNegativeIndex is returned by Set.At and Set.Slice for negative positions.
	ErrNegativeIndex = errors.New("query: negative indexing is not supported")

	// ErrIndexOutOfRange is returned by Set.At past the end of the result set.
	ErrIndexOutOfRange = errors.New("query: no such item in result set")
)

// IsNotFilter checks if the error is a composition error.
func IsNotFilter(err error) bool {
	return errors.Is(err, ErrNotFilter)
}

// IsIndexOutOfRange checks if the error is an out-of-range access.
func IsIndexOutOfRange(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange)
}
