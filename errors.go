package arkio

import (
	"errors"
	"fmt"

	"github.com/hupe1980/arkio/codec"
	"github.com/hupe1980/arkio/xfile"
)

var (
	// ErrClosed is returned by any operation on a closed table handle.
	ErrClosed = errors.New("table handle is closed")

	// ErrExhausted is returned by Next once a sequential reader has passed
	// its last entry. The failure is idempotent: every further Next returns
	// it again.
	ErrExhausted = errors.New("sequential reader is exhausted")
)

// Error kinds raised by the resolver and codec layers, re-exported so
// callers handle every failure of this package under one import.
type (
	// OpenError reports a location that could not be opened for the
	// requested mode. It wraps the underlying fault; no unstructured
	// failure escapes the boundary.
	OpenError = xfile.OpenError

	// UnsupportedTypeError reports an unrecognized type tag.
	UnsupportedTypeError = codec.UnsupportedTypeError

	// TypeMismatchError reports a value whose type or shape disagrees with
	// the DataType the table was opened with.
	TypeMismatchError = codec.TypeMismatchError
)

// KeyNotFoundError reports a random-access lookup miss.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %q not found", e.Key)
}

func openError(location, op string, err error) *OpenError {
	return &OpenError{Location: location, Op: op, Err: err}
}
