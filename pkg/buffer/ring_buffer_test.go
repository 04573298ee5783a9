package buffer

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func mustRing(t *testing.T, capacity int) *RingBuffer {
	t.Helper()
	rb, err := NewRingBuffer(capacity, nil)
	if err != nil {
		t.Fatalf("NewRingBuffer(%d) error: %v", capacity, err)
	}
	return rb
}

func checkCounters(t *testing.T, rb *RingBuffer) {
	t.Helper()
	if rb.Ready()+rb.Free() != rb.Cap() {
		t.Fatalf("ready(%d)+free(%d) != cap(%d)", rb.Ready(), rb.Free(), rb.Cap())
	}
}

func TestNewRingBuffer(t *testing.T) {
	tests := []struct {
		capacity int
		wantErr  error
	}{
		{-1, ErrInvalidCapacity},
		{0, ErrInvalidCapacity},
		{1, nil},
		{1024, nil},
	}
	for _, tt := range tests {
		rb, err := NewRingBuffer(tt.capacity, nil)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("NewRingBuffer(%d) err=%v, want %v", tt.capacity, err, tt.wantErr)
			continue
		}
		if err != nil {
			if rb != nil {
				t.Errorf("NewRingBuffer(%d) returned a ring on error", tt.capacity)
			}
			continue
		}
		if rb.Cap() != tt.capacity || rb.Free() != tt.capacity || rb.Ready() != 0 {
			t.Errorf("NewRingBuffer(%d): cap=%d free=%d ready=%d", tt.capacity, rb.Cap(), rb.Free(), rb.Ready())
		}
		if rb.Status() != StatusEmpty {
			t.Errorf("NewRingBuffer(%d): status=%v", tt.capacity, rb.Status())
		}
	}
}

func TestNewRingBufferAllocator(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		boom := errors.New("boom")
		rb, err := NewRingBuffer(8, func(int) ([]byte, error) { return nil, boom })
		if !errors.Is(err, ErrOutOfMemory) || !errors.Is(err, boom) {
			t.Fatalf("err=%v, want ErrOutOfMemory wrapping boom", err)
		}
		if rb != nil {
			t.Fatal("ring returned on allocation failure")
		}
	})

	t.Run("short", func(t *testing.T) {
		_, err := NewRingBuffer(8, func(int) ([]byte, error) { return make([]byte, 4), nil })
		if !errors.Is(err, ErrOutOfMemory) {
			t.Fatalf("err=%v, want ErrOutOfMemory", err)
		}
	})

	t.Run("oversized", func(t *testing.T) {
		rb, err := NewRingBuffer(4, func(int) ([]byte, error) { return make([]byte, 16), nil })
		if err != nil {
			t.Fatal(err)
		}
		if rb.Cap() != 4 {
			t.Fatalf("cap=%d, want 4", rb.Cap())
		}
	})
}

func TestRingBufferScenarioA(t *testing.T) {
	rb := mustRing(t, 4)
	if n := rb.Write([]byte("AB")); n != 2 {
		t.Fatalf("write n=%d", n)
	}
	if rb.Ready() != 2 || rb.Free() != 2 {
		t.Fatalf("ready=%d free=%d", rb.Ready(), rb.Free())
	}
	var p [1]byte
	if n := rb.Read(p[:]); n != 1 || p[0] != 'A' {
		t.Fatalf("read n=%d p=%q", n, p[:])
	}
	if rb.Ready() != 1 || rb.Free() != 3 {
		t.Fatalf("ready=%d free=%d", rb.Ready(), rb.Free())
	}
	checkCounters(t, rb)
}

func TestRingBufferFull(t *testing.T) {
	rb := mustRing(t, 2)
	if n := rb.Write([]byte("ABC")); n != 2 {
		t.Fatalf("write n=%d, want 2", n)
	}
	if rb.Status() != StatusFull || rb.Free() != 0 || rb.Ready() != 2 {
		t.Fatalf("status=%v free=%d ready=%d", rb.Status(), rb.Free(), rb.Ready())
	}
	if n := rb.Write([]byte("C")); n != 0 {
		t.Fatalf("write to full ring n=%d", n)
	}
	got := make([]byte, 8)
	n := rb.Read(got)
	if string(got[:n]) != "AB" {
		t.Fatalf("got=%q", got[:n])
	}
	if rb.Status() != StatusEmpty {
		t.Fatalf("status=%v", rb.Status())
	}
	if n := rb.Read(got); n != 0 {
		t.Fatalf("read from empty ring n=%d", n)
	}
}

func TestRingBufferFree(t *testing.T) {
	// Walk the indices around the ring so both readIdx > writeIdx and
	// readIdx < writeIdx are observed with data present.
	rb := mustRing(t, 5)
	p := make([]byte, 5)
	for step := range 20 {
		w := rb.Write([]byte("xyz"))
		checkCounters(t, rb)
		r := rb.Read(p[:2])
		checkCounters(t, rb)
		if w == 0 && r == 0 {
			t.Fatalf("step %d: no progress", step)
		}
	}
}

func TestRingBufferWraparound(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 7, 64} {
		rb := mustRing(t, capacity)
		src := make([]byte, capacity*13+5)
		if _, err := rand.Read(src); err != nil {
			t.Fatal(err)
		}

		var dst []byte
		in := src
		chunk := make([]byte, capacity/2+1)
		for len(dst) < len(src) {
			n := rb.Write(in[:min(len(in), capacity/3+1)])
			in = in[n:]
			checkCounters(t, rb)
			m := rb.Read(chunk)
			dst = append(dst, chunk[:m]...)
			checkCounters(t, rb)
		}
		if !bytes.Equal(src, dst) {
			t.Fatalf("capacity=%d: round trip mismatch", capacity)
		}
	}
}

func TestRingBufferPeekDiscard(t *testing.T) {
	rb := mustRing(t, 4)
	rb.Write([]byte("abc"))
	var p [2]byte
	rb.Read(p[:])
	rb.Write([]byte("def")) // wraps: c d e f

	peek := make([]byte, 8)
	n := rb.Peek(peek)
	if string(peek[:n]) != "cdef" {
		t.Fatalf("peek=%q", peek[:n])
	}
	if rb.Ready() != 4 {
		t.Fatalf("peek consumed data, ready=%d", rb.Ready())
	}
	if d := rb.Discard(3); d != 3 {
		t.Fatalf("discard=%d", d)
	}
	n = rb.Peek(peek)
	if string(peek[:n]) != "f" {
		t.Fatalf("peek after discard=%q", peek[:n])
	}
	if d := rb.Discard(10); d != 1 {
		t.Fatalf("discard past end=%d", d)
	}
	if rb.Status() != StatusEmpty {
		t.Fatalf("status=%v", rb.Status())
	}
}

func TestRingBufferClear(t *testing.T) {
	rb := mustRing(t, 3)
	rb.Write([]byte("abc"))
	rb.Clear()
	if rb.Status() != StatusEmpty || rb.Free() != 3 || rb.Ready() != 0 {
		t.Fatalf("status=%v free=%d ready=%d", rb.Status(), rb.Free(), rb.Ready())
	}
	rb.Write([]byte("z"))
	var p [3]byte
	if n := rb.Read(p[:]); n != 1 || p[0] != 'z' {
		t.Fatalf("read after clear n=%d p=%q", n, p[:n])
	}
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		StatusEmpty:   "empty",
		StatusHasData: "data",
		StatusFull:    "full",
		Status(9):     "Status(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}

func BenchmarkRingBuffer(b *testing.B) {
	rb, _ := NewRingBuffer(4096, nil)
	p := make([]byte, 1024)
	b.SetBytes(int64(len(p)))
	for b.Loop() {
		rb.Write(p)
		rb.Read(p)
	}
}
