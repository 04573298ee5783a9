//go:build unix

package commands

import (
	"golang.org/x/sys/unix"

	"github.com/haivivi/ringdev/pkg/chardev"
)

// ExitCode returns the process exit status for err. Device errors, local or
// remote, exit with their errno (EAGAIN for a non-blocking read of an empty
// device); anything else exits with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errno := chardev.Errno(err); errno != unix.EIO {
		return int(errno)
	}
	return 1
}
