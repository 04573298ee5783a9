package devnet

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/ringdev/pkg/chardev"
)

// MaxTransfer caps the byte count of a single read or write frame.
const MaxTransfer = chardev.MaxBufferSize

// FrameType classifies a frame.
type FrameType uint8

const (
	FrameRequest FrameType = iota + 1
	FrameResponse
	FrameCancel
	FrameEvent
)

func (t FrameType) String() string {
	switch t {
	case FrameRequest:
		return "request"
	case FrameResponse:
		return "response"
	case FrameCancel:
		return "cancel"
	case FrameEvent:
		return "event"
	default:
		return fmt.Sprintf("FrameType(%d)", uint8(t))
	}
}

// Op names a request.
type Op string

const (
	OpOpen     Op = "open"
	OpRead     Op = "read"
	OpWrite    Op = "write"
	OpPoll     Op = "poll"
	OpPollWait Op = "pollwait"
	OpQuery    Op = "query"
	OpControl  Op = "control"
	OpClear    Op = "clear"
	OpNotify   Op = "notify"
	OpUnnotify Op = "unnotify"
)

// Frame is the single message type exchanged in both directions. Requests
// and their responses share ID. A cancel frame carries the ID of the request
// to interrupt and gets no response of its own.
type Frame struct {
	Type FrameType `msgpack:"t"`
	ID   uint64    `msgpack:"id,omitempty"`
	Op   Op        `msgpack:"op,omitempty"`

	// open
	Device  int          `msgpack:"dev,omitempty"`
	Mode    chardev.Mode `msgpack:"mode,omitempty"`
	Session string       `msgpack:"sid,omitempty"`

	// read, write, control, pollwait
	Count int               `msgpack:"count,omitempty"`
	Data  []byte            `msgpack:"data,omitempty"`
	Code  chardev.QueryCode `msgpack:"code,omitempty"`
	Want  chardev.PollMask  `msgpack:"want,omitempty"`

	// response
	N       int              `msgpack:"n,omitempty"`
	Mask    chardev.PollMask `msgpack:"mask,omitempty"`
	Query   *chardev.Query   `msgpack:"query,omitempty"`
	Kind    string           `msgpack:"kind,omitempty"`
	Message string           `msgpack:"msg,omitempty"`

	// event
	Event *chardev.Event `msgpack:"event,omitempty"`
}

// Err returns the error carried by a response frame, or nil.
func (f *Frame) Err() error {
	if f.Kind == "" {
		return nil
	}
	return &RemoteError{Kind: f.Kind, Message: f.Message}
}

func (f *Frame) setErr(err error) {
	f.Kind = errorKind(err)
	f.Message = err.Error()
}

// codec reads and writes frames on one stream. Writes are serialized;
// reads must come from a single goroutine.
type codec struct {
	dec *msgpack.Decoder

	mu  sync.Mutex
	bw  *bufio.Writer
	enc *msgpack.Encoder
}

func newCodec(rw io.ReadWriter) *codec {
	bw := bufio.NewWriter(rw)
	return &codec{
		dec: msgpack.NewDecoder(bufio.NewReader(rw)),
		bw:  bw,
		enc: msgpack.NewEncoder(bw),
	}
}

func (c *codec) read() (*Frame, error) {
	var f Frame
	if err := c.dec.Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *codec) write(f *Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(f); err != nil {
		return err
	}
	return c.bw.Flush()
}
