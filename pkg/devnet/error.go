package devnet

import (
	"errors"
	"fmt"

	"github.com/haivivi/ringdev/pkg/chardev"
)

var (
	// ErrClosed is returned when operating on a closed connection.
	ErrClosed = errors.New("devnet: connection closed")

	// ErrProtocol is returned when the peer sends an unexpected frame.
	ErrProtocol = errors.New("devnet: protocol violation")

	// ErrAlreadyRunning is returned when Serve is called twice.
	ErrAlreadyRunning = errors.New("devnet: already running")
)

// Error kinds carried by error responses.
const (
	kindWouldBlock     = "would_block"
	kindInterrupted    = "interrupted"
	kindInvalidConfig  = "invalid_config"
	kindOutOfMemory    = "out_of_memory"
	kindInvalidRequest = "invalid_request"
	kindFault          = "fault"
	kindBusy           = "busy"
	kindProtocol       = "protocol"
	kindIO             = "io"
)

var kinds = []struct {
	kind string
	err  error
}{
	{kindWouldBlock, chardev.ErrWouldBlock},
	{kindInterrupted, chardev.ErrInterrupted},
	{kindInvalidConfig, chardev.ErrInvalidConfig},
	{kindOutOfMemory, chardev.ErrOutOfMemory},
	{kindInvalidRequest, chardev.ErrInvalidRequest},
	{kindFault, chardev.ErrFault},
	{kindBusy, chardev.ErrBusy},
	{kindProtocol, ErrProtocol},
}

func errorKind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return kindIO
}

// RemoteError is an error reported by the server. It unwraps to the matching
// chardev sentinel, so errors.Is(err, chardev.ErrWouldBlock) works across
// the wire.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("devnet: remote %s: %s", e.Kind, e.Message)
}

func (e *RemoteError) Unwrap() error {
	for _, k := range kinds {
		if k.kind == e.Kind {
			return k.err
		}
	}
	return nil
}
