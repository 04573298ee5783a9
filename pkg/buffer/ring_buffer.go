package buffer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCapacity is returned when a ring is created with a capacity
	// that is zero or negative.
	ErrInvalidCapacity = errors.New("buffer: invalid capacity")

	// ErrOutOfMemory is returned when the storage for a ring cannot be
	// allocated.
	ErrOutOfMemory = errors.New("buffer: out of memory")
)

// Status tells an empty ring from a full one. Both have readIdx == writeIdx,
// so the indices alone cannot answer the question.
type Status int

const (
	StatusEmpty Status = iota
	StatusHasData
	StatusFull
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusHasData:
		return "data"
	case StatusFull:
		return "full"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Allocator returns storage of exactly size bytes for a ring.
type Allocator func(size int) ([]byte, error)

// RingBuffer is a fixed-capacity circular byte store.
//
// It does no locking and never blocks: writes stop when the ring is full and
// reads stop when it is empty, returning however many bytes were actually
// transferred. Callers that share a RingBuffer between goroutines must
// serialize every method call themselves.
type RingBuffer struct {
	buf      []byte
	readIdx  int
	writeIdx int
	status   Status
}

// NewRingBuffer creates a ring of the given capacity. Storage comes from
// alloc, or from make when alloc is nil.
func NewRingBuffer(capacity int, alloc Allocator) (*RingBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	var buf []byte
	if alloc == nil {
		buf = make([]byte, capacity)
	} else {
		b, err := alloc(capacity)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		if len(b) < capacity {
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrOutOfMemory, len(b), capacity)
		}
		buf = b[:capacity]
	}
	return &RingBuffer{buf: buf, status: StatusEmpty}, nil
}

// Write copies bytes from p into the ring until p is exhausted or the ring
// becomes full. It returns the number of bytes stored.
func (rb *RingBuffer) Write(p []byte) int {
	n := 0
	for rb.status != StatusFull && n < len(p) {
		rb.buf[rb.writeIdx] = p[n]
		n++
		rb.writeIdx = (rb.writeIdx + 1) % len(rb.buf)
		if rb.writeIdx == rb.readIdx {
			rb.status = StatusFull
		} else {
			rb.status = StatusHasData
		}
	}
	return n
}

// Read moves bytes from the ring into p until p is full or the ring becomes
// empty. It returns the number of bytes read.
func (rb *RingBuffer) Read(p []byte) int {
	n := rb.Peek(p)
	rb.Discard(n)
	return n
}

// Peek copies up to len(p) ready bytes into p without consuming them.
func (rb *RingBuffer) Peek(p []byte) int {
	n := min(len(p), rb.Ready())
	if n == 0 {
		return 0
	}
	head := copy(p[:n], rb.buf[rb.readIdx:])
	copy(p[head:n], rb.buf)
	return n
}

// Discard consumes up to n ready bytes without copying them and returns the
// number of bytes discarded.
func (rb *RingBuffer) Discard(n int) int {
	discarded := 0
	for rb.status != StatusEmpty && discarded < n {
		discarded++
		rb.readIdx = (rb.readIdx + 1) % len(rb.buf)
		if rb.readIdx == rb.writeIdx {
			rb.status = StatusEmpty
		} else {
			rb.status = StatusHasData
		}
	}
	return discarded
}

// Clear drops all content and rewinds both indices.
func (rb *RingBuffer) Clear() {
	rb.readIdx = 0
	rb.writeIdx = 0
	rb.status = StatusEmpty
}

// Cap returns the fixed capacity of the ring.
func (rb *RingBuffer) Cap() int {
	return len(rb.buf)
}

// Free returns the number of bytes that can be written before the ring is
// full.
func (rb *RingBuffer) Free() int {
	switch rb.status {
	case StatusEmpty:
		return len(rb.buf)
	case StatusFull:
		return 0
	}
	if rb.readIdx > rb.writeIdx {
		return rb.readIdx - rb.writeIdx
	}
	return len(rb.buf) - rb.writeIdx + rb.readIdx
}

// Ready returns the number of bytes waiting to be read.
func (rb *RingBuffer) Ready() int {
	return rb.Cap() - rb.Free()
}

// Status reports whether the ring is empty, holds data, or is full.
func (rb *RingBuffer) Status() Status {
	return rb.status
}
