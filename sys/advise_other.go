//go:build !linux

package sys

// AdviseSequential is a no-op where posix_fadvise is unavailable.
func AdviseSequential(f FileHandle, offset, length int64) error {
	return ErrAdviseNotSupported
}
