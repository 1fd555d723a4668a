package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingData is returned when a file that the part descriptor says
	// must exist cannot be found. The part is inconsistent and cannot be read.
	ErrMissingData = errors.New("expected data part content is missing")
	// ErrMemoryLimitExceeded is returned when a buffer preallocation would
	// exceed the configured memory ceiling.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")
	// ErrCorrupted is returned for checksum mismatches and malformed blocks or marks.
	ErrCorrupted = errors.New("data is corrupted")
	// ErrArgumentOutOfBound is returned when a mark points past its block.
	ErrArgumentOutOfBound = errors.New("argument out of bound")
	// ErrEmptyBlock is returned when an operation needs at least one column.
	ErrEmptyBlock = errors.New("empty block")
	// ErrClosed is returned when a reader is used after Close.
	ErrClosed = errors.New("reader is closed")
)

// UnsupportedTypeError reports a type or codec name that cannot be handled.
type UnsupportedTypeError struct {
	Message string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type value: %s", e.Message)
}

func IsUnsupportedError(err error) bool {
	var unsupportedError *UnsupportedTypeError
	return errors.As(err, &unsupportedError)
}

// IsMemoryLimitExceeded reports whether err (or anything it wraps) is a
// memory ceiling violation.
func IsMemoryLimitExceeded(err error) bool {
	return errors.Is(err, ErrMemoryLimitExceeded)
}
