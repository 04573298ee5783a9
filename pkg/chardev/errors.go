package chardev

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of
// these, so callers match with errors.Is.
var (
	// ErrInvalidConfig is returned for a bad capacity or instance count.
	ErrInvalidConfig = errors.New("chardev: invalid config")

	// ErrOutOfMemory is returned when channel storage cannot be allocated.
	ErrOutOfMemory = errors.New("chardev: out of memory")

	// ErrWouldBlock is returned by a non-blocking call that found the buffer
	// empty (read) or full (write). Nothing was changed; try again later.
	ErrWouldBlock = errors.New("chardev: operation would block")

	// ErrInterrupted is returned when a blocking wait is cancelled. Nothing
	// was changed; the caller decides whether to retry.
	ErrInterrupted = errors.New("chardev: interrupted")

	// ErrInvalidRequest is returned for use of a closed session or channel,
	// an unknown query code, or an out of range device index.
	ErrInvalidRequest = errors.New("chardev: invalid request")

	// ErrFault is returned when the caller's reader or writer fails during a
	// boundary copy. The channel is left unchanged.
	ErrFault = errors.New("chardev: bad address")

	// ErrBusy is returned when a registry is closed while sessions are open.
	ErrBusy = errors.New("chardev: device busy")
)

func interrupted(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
}
