//go:build linux

package sys

import (
	"errors"

	"golang.org/x/sys/unix"
)

// AdviseSequential tells the kernel that [offset, offset+length) of f will be
// read sequentially, so it can read ahead aggressively. A length of 0 means
// to the end of the file.
func AdviseSequential(f FileHandle, offset, length int64) error {
	fd := int(f.Fd())
	if err := unix.Fadvise(fd, offset, length, unix.FADV_SEQUENTIAL); err != nil {
		if errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ESPIPE) {
			return ErrAdviseNotSupported
		}
		return err
	}
	return nil
}
