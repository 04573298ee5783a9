package chardev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/haivivi/ringdev/pkg/buffer"
)

// Channel is a ring buffer shared by any number of readers and writers.
//
// All state below sem is guarded by sem, a one-slot semaphore used as a mutex
// whose acquisition can be cancelled. Wakeups and subscriber notifications are
// delivered after the lock has been released.
type Channel struct {
	name   string
	logger *slog.Logger

	sem *semaphore.Weighted

	rb      *buffer.RingBuffer
	scratch []byte
	readers waitQueue // woken when data arrives
	writers waitQueue // woken when room is made
	subs    map[*Subscription]struct{}
	closed  bool
}

// NewChannel creates a channel with a ring of the given capacity. It fails
// with ErrInvalidConfig for capacity <= 0 and with ErrOutOfMemory when the
// configured allocator fails.
func NewChannel(name string, capacity int, opts ...Option) (*Channel, error) {
	o := newOptions(opts)
	rb, err := buffer.NewRingBuffer(capacity, o.alloc)
	if err != nil {
		if errors.Is(err, buffer.ErrInvalidCapacity) {
			return nil, fmt.Errorf("%w: channel %s: %w", ErrInvalidConfig, name, err)
		}
		return nil, fmt.Errorf("%w: channel %s: %w", ErrOutOfMemory, name, err)
	}
	c := &Channel{
		name:   name,
		logger: o.logger,
		sem:    semaphore.NewWeighted(1),
		rb:     rb,
		subs:   make(map[*Subscription]struct{}),
	}
	c.logger.Debug("chardev: created channel", "channel", name, "capacity", capacity)
	return c, nil
}

// Name returns the name the channel was created with.
func (c *Channel) Name() string {
	return c.name
}

func (c *Channel) lock(ctx context.Context) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return interrupted(ctx)
	}
	if c.closed {
		c.sem.Release(1)
		return fmt.Errorf("%w: channel %s is closed", ErrInvalidRequest, c.name)
	}
	return nil
}

func (c *Channel) unlock() {
	c.sem.Release(1)
}

// Read reads up to len(p) bytes. In Blocking mode it sleeps until at least
// one byte is ready; it never waits for len(p) bytes.
func (c *Channel) Read(ctx context.Context, p []byte, mode Mode) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return c.transfer(ctx, mode, opRead, len(p), func() (int, error) {
		return c.rb.Read(p), nil
	})
}

// Write writes up to len(p) bytes. In Blocking mode it sleeps until at least
// one byte is free; the returned count may be less than len(p).
func (c *Channel) Write(ctx context.Context, p []byte, mode Mode) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return c.transfer(ctx, mode, opWrite, len(p), func() (int, error) {
		return c.rb.Write(p), nil
	})
}

// ReadTo reads up to count bytes and hands them to w in a single Write. The
// bytes are consumed only if w accepts them; otherwise ReadTo fails with
// ErrFault and the channel keeps its content.
func (c *Channel) ReadTo(ctx context.Context, w io.Writer, count int, mode Mode) (int, error) {
	if count <= 0 {
		return 0, nil
	}
	return c.transfer(ctx, mode, opRead, count, func() (int, error) {
		out := c.scratchN(min(count, c.rb.Ready()))
		n := c.rb.Peek(out)
		if _, err := w.Write(out[:n]); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrFault, err)
		}
		c.rb.Discard(n)
		return n, nil
	})
}

// WriteFrom reads as many bytes from r as currently fit, up to count, and
// stores them. If r fails before supplying them all, WriteFrom fails with
// ErrFault and nothing is stored.
func (c *Channel) WriteFrom(ctx context.Context, r io.Reader, count int, mode Mode) (int, error) {
	if count <= 0 {
		return 0, nil
	}
	return c.transfer(ctx, mode, opWrite, count, func() (int, error) {
		in := c.scratchN(min(count, c.rb.Free()))
		if _, err := io.ReadFull(r, in); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrFault, err)
		}
		return c.rb.Write(in), nil
	})
}

type op int

const (
	opRead op = iota
	opWrite
)

func (o op) String() string {
	if o == opRead {
		return "read"
	}
	return "write"
}

// transfer runs xfer under the lock once the ring can make progress in the
// direction of o, then wakes the opposite waiter set and notifies
// subscribers.
func (c *Channel) transfer(ctx context.Context, mode Mode, o op, count int, xfer func() (int, error)) (int, error) {
	sleepers, avail, wakeup, dir := &c.readers, c.rb.Ready, &c.writers, DirOut
	if o == opWrite {
		sleepers, avail, wakeup, dir = &c.writers, c.rb.Free, &c.readers, DirIn
	}

	if err := c.lock(ctx); err != nil {
		return 0, err
	}
	if err := c.waitFor(ctx, mode, o, sleepers, avail); err != nil {
		return 0, err
	}
	n, err := xfer()
	if err != nil {
		c.unlock()
		return 0, err
	}
	wake := wakeup.detach()
	subs := c.subscribers()
	c.unlock()

	c.logger.Debug("chardev: transfer", "channel", c.name, "op", o.String(), "n", n, "count", count)
	wake()
	c.notify(subs, dir)
	return n, nil
}

// waitFor is entered with the lock held. It returns with the lock held once
// avail reports progress is possible, or with the lock released on error.
func (c *Channel) waitFor(ctx context.Context, mode Mode, o op, q *waitQueue, avail func() int) error {
	for avail() == 0 {
		if mode == NonBlocking {
			c.unlock()
			return ErrWouldBlock
		}
		woken := q.arm()
		c.unlock()

		c.logger.Debug("chardev: going to sleep", "channel", c.name, "op", o.String())
		select {
		case <-woken:
		case <-ctx.Done():
			return interrupted(ctx)
		}

		if err := c.lock(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Channel) scratchN(n int) []byte {
	if c.scratch == nil {
		c.scratch = make([]byte, c.rb.Cap())
	}
	return c.scratch[:n]
}

func (c *Channel) maskLocked() PollMask {
	var m PollMask
	if c.rb.Ready() != 0 {
		m |= PollReadable
	}
	if c.rb.Free() != 0 {
		m |= PollWritable
	}
	return m
}

// Poll reports current readiness without changing anything. If the lock
// cannot be taken before ctx is done it returns PollErr and ErrInterrupted.
func (c *Channel) Poll(ctx context.Context) (PollMask, error) {
	if err := c.lock(ctx); err != nil {
		return PollErr, err
	}
	m := c.maskLocked()
	c.unlock()
	return m, nil
}

// PollWait waits until any bit of want is set and returns the full mask. A
// zero want waits for either direction. The caller sits in both waiter sets
// while it waits, like a poll(2) caller would.
func (c *Channel) PollWait(ctx context.Context, want PollMask) (PollMask, error) {
	if want == 0 {
		want = PollReadable | PollWritable
	}
	for {
		if err := c.lock(ctx); err != nil {
			return PollErr, err
		}
		m := c.maskLocked()
		if m&want != 0 {
			c.unlock()
			return m, nil
		}
		in, out := c.readers.arm(), c.writers.arm()
		c.unlock()

		select {
		case <-in:
		case <-out:
		case <-ctx.Done():
			return PollErr, interrupted(ctx)
		}
	}
}

// Query returns capacity, free and ready bytes as one snapshot.
func (c *Channel) Query(ctx context.Context) (Query, error) {
	if err := c.lock(ctx); err != nil {
		return Query{}, err
	}
	defer c.unlock()
	return Query{Capacity: c.rb.Cap(), Free: c.rb.Free(), Ready: c.rb.Ready()}, nil
}

// Control returns the single counter selected by code.
func (c *Channel) Control(ctx context.Context, code QueryCode) (int, error) {
	q, err := c.Query(ctx)
	if err != nil {
		return 0, err
	}
	switch code {
	case QuerySize:
		return q.Capacity, nil
	case QueryFree:
		return q.Free, nil
	case QueryReady:
		return q.Ready, nil
	}
	return 0, fmt.Errorf("%w: unknown query code %d", ErrInvalidRequest, uint32(code))
}

// Clear discards all buffered bytes and wakes blocked writers.
func (c *Channel) Clear(ctx context.Context) error {
	if err := c.lock(ctx); err != nil {
		return err
	}
	c.rb.Clear()
	wake := c.writers.detach()
	subs := c.subscribers()
	c.unlock()

	c.logger.Debug("chardev: cleared", "channel", c.name)
	wake()
	c.notify(subs, DirOut)
	return nil
}

// Subscribe registers fn to be called on every readiness transition.
func (c *Channel) Subscribe(fn func(Event)) (*Subscription, error) {
	if err := c.lock(context.Background()); err != nil {
		return nil, err
	}
	defer c.unlock()
	s := newSubscription(fn)
	c.subs[s] = struct{}{}
	return s, nil
}

// Unsubscribe removes s and stops its delivery goroutine. Events already
// queued for s are dropped. A callback in progress is not waited for; wait
// on s.Done() for that, from outside the callback. Unsubscribing twice is a
// no-op.
func (c *Channel) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	if err := c.lock(context.Background()); err == nil {
		delete(c.subs, s)
		c.unlock()
	}
	s.stop()
}

func (c *Channel) subscribers() []*Subscription {
	if len(c.subs) == 0 {
		return nil
	}
	subs := make([]*Subscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	return subs
}

func (c *Channel) notify(subs []*Subscription, dir Direction) {
	ev := Event{Channel: c.name, Direction: dir}
	for _, s := range subs {
		s.post(ev)
	}
}

// Close destroys the channel. Sleeping callers wake up and fail with
// ErrInvalidRequest, as does every later call. All subscriptions are stopped.
func (c *Channel) Close() error {
	if err := c.lock(context.Background()); err != nil {
		return err
	}
	c.closed = true
	wakeReaders := c.readers.detach()
	wakeWriters := c.writers.detach()
	subs := c.subscribers()
	c.subs = nil
	c.unlock()

	wakeReaders()
	wakeWriters()
	for _, s := range subs {
		s.stop()
	}
	c.logger.Debug("chardev: deleted channel", "channel", c.name)
	return nil
}
