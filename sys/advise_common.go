package sys

import "errors"

// ErrAdviseNotSupported is returned when the platform or filesystem ignores
// read-ahead advice. Callers treat it as non-fatal.
var ErrAdviseNotSupported = errors.New("read advice not supported on this platform")
