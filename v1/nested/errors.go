package nested

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is matched by every *KeyError.
	ErrKeyNotFound = errors.New("nested: key not found")

	// ErrNotMapping is returned when a document argument is not a mapping.
	ErrNotMapping = errors.New("nested: value is not a mapping")
)

// KeyError reports a path that could not be resolved. Key is always the
// complete path passed by the caller.
type KeyError struct {
	Key string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("nested: key %q not found", e.Key)
}

// Is makes errors.Is(err, ErrKeyNotFound) true for any *KeyError.
func (e *KeyError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// IsKeyNotFound checks if the error is a missing-key error.
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsNotMapping checks if the error was caused by a non-mapping argument.
func IsNotMapping(err error) bool {
	return errors.Is(err, ErrNotMapping)
}
