package asset

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad matches every *LoadError via errors.Is.
	ErrLoad = errors.New("asset load failed")

	// ErrClosed is returned by Acquire once the cache has been closed, and to waiters
	// whose load finished after Close.
	ErrClosed = errors.New("asset cache closed")
)

// LoadError reports a failed read or decode of one key. Every caller waiting on the
// same load receives the same *LoadError.
type LoadError struct {
	// Key is the resource key that failed.
	Key string

	// Op is the pipeline stage that failed: "read", "open" or "decode".
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Key, e.Op, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoad, e.Err}
}
