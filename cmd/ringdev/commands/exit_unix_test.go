//go:build unix

package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/haivivi/ringdev/pkg/chardev"
	"github.com/haivivi/ringdev/pkg/devnet"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"would block", fmt.Errorf("read: %w", chardev.ErrWouldBlock), int(unix.EAGAIN)},
		{"remote would block", &devnet.RemoteError{Kind: "would_block", Message: "empty"}, int(unix.EAGAIN)},
		{"busy", chardev.ErrBusy, int(unix.EBUSY)},
		{"interrupted", fmt.Errorf("%w: %w", chardev.ErrInterrupted, context.Canceled), int(unix.EINTR)},
		{"usage", errors.New(`unknown command "foo"`), 1},
		{"closed", devnet.ErrClosed, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
