package chardev

import (
	"fmt"
	"strings"
)

// Mode selects what Read and Write do when they cannot make progress.
type Mode int

const (
	// Blocking callers sleep until data (or room) is available.
	Blocking Mode = iota
	// NonBlocking callers fail immediately with ErrWouldBlock.
	NonBlocking
)

func (m Mode) String() string {
	switch m {
	case Blocking:
		return "blocking"
	case NonBlocking:
		return "nonblocking"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// PollMask is the readiness bit set returned by Poll. The values match the
// Linux poll(2) constants.
type PollMask uint32

const (
	PollIn     PollMask = 0x0001
	PollErr    PollMask = 0x0008
	PollOut    PollMask = 0x0004
	PollRdNorm PollMask = 0x0040
	PollWrNorm PollMask = 0x0100

	// PollReadable is reported when at least one byte is ready.
	PollReadable = PollIn | PollRdNorm
	// PollWritable is reported when at least one byte is free.
	PollWritable = PollOut | PollWrNorm
)

// Readable reports whether a read would not block.
func (m PollMask) Readable() bool { return m&PollIn != 0 }

// Writable reports whether a write would not block.
func (m PollMask) Writable() bool { return m&PollOut != 0 }

func (m PollMask) String() string {
	var parts []string
	for _, b := range []struct {
		bit  PollMask
		name string
	}{
		{PollIn, "IN"},
		{PollRdNorm, "RDNORM"},
		{PollOut, "OUT"},
		{PollWrNorm, "WRNORM"},
		{PollErr, "ERR"},
	} {
		if m&b.bit != 0 {
			parts = append(parts, b.name)
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}

// Direction tags a readiness event.
type Direction int

const (
	// DirIn means the channel gained data.
	DirIn Direction = iota + 1
	// DirOut means the channel gained room.
	DirOut
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Event is delivered to subscribers on every readiness transition. It is a
// hint to check again, not a promise that the data is still there.
type Event struct {
	Channel   string    `json:"channel" yaml:"channel" msgpack:"channel"`
	Direction Direction `json:"direction" yaml:"direction" msgpack:"direction"`
}

// Query is a consistent snapshot of a channel's counters.
type Query struct {
	Capacity int `json:"capacity" yaml:"capacity" msgpack:"capacity"`
	Free     int `json:"free" yaml:"free" msgpack:"free"`
	Ready    int `json:"ready" yaml:"ready" msgpack:"ready"`
}

// QueryCode selects one counter for Control.
type QueryCode uint32

const (
	QuerySize QueryCode = iota
	QueryFree
	QueryReady
)

func (c QueryCode) String() string {
	switch c {
	case QuerySize:
		return "size"
	case QueryFree:
		return "free"
	case QueryReady:
		return "ready"
	default:
		return fmt.Sprintf("QueryCode(%d)", uint32(c))
	}
}

// ParseQueryCode parses the names printed by QueryCode.String.
func ParseQueryCode(s string) (QueryCode, error) {
	switch strings.ToLower(s) {
	case "size", "capacity":
		return QuerySize, nil
	case "free":
		return QueryFree, nil
	case "ready":
		return QueryReady, nil
	}
	return 0, fmt.Errorf("%w: unknown query %q", ErrInvalidRequest, s)
}
