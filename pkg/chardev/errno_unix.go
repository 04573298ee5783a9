//go:build unix

package chardev

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Errno maps an error from this package to the errno a character device
// driver would return for it. It returns 0 for nil and EIO for errors that
// carry no known kind.
func Errno(err error) unix.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrWouldBlock):
		return unix.EAGAIN
	case errors.Is(err, ErrInterrupted):
		return unix.EINTR
	case errors.Is(err, ErrInvalidConfig):
		return unix.EINVAL
	case errors.Is(err, ErrOutOfMemory):
		return unix.ENOMEM
	case errors.Is(err, ErrInvalidRequest):
		return unix.ENOTTY
	case errors.Is(err, ErrFault):
		return unix.EFAULT
	case errors.Is(err, ErrBusy):
		return unix.EBUSY
	default:
		return unix.EIO
	}
}
