package chardev

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// Session is one open handle on a Channel. Its Mode is fixed at Open.
// A Session is safe for concurrent use, but once Close returns every method
// fails with ErrInvalidRequest.
type Session struct {
	id      uuid.UUID
	ch      *Channel
	mode    Mode
	onClose func()

	mu     sync.Mutex
	sub    *Subscription
	closed bool
}

// Open binds a new session to ch.
func Open(ch *Channel, mode Mode) (*Session, error) {
	if ch == nil {
		return nil, fmt.Errorf("%w: nil channel", ErrInvalidRequest)
	}
	if mode != Blocking && mode != NonBlocking {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidRequest, int(mode))
	}
	s := &Session{
		id:   uuid.New(),
		ch:   ch,
		mode: mode,
	}
	ch.logger.Debug("chardev: open", "channel", ch.name, "session", s.id, "mode", mode.String())
	return s, nil
}

// ID returns the session's unique id.
func (s *Session) ID() uuid.UUID { return s.id }

// Mode returns the mode the session was opened with.
func (s *Session) Mode() Mode { return s.mode }

// Channel returns the bound channel.
func (s *Session) Channel() *Channel { return s.ch }

func (s *Session) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: session %s is closed", ErrInvalidRequest, s.id)
	}
	return nil
}

// Read reads up to len(p) bytes from the channel.
func (s *Session) Read(ctx context.Context, p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.ch.Read(ctx, p, s.mode)
}

// Write writes up to len(p) bytes to the channel.
func (s *Session) Write(ctx context.Context, p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.ch.Write(ctx, p, s.mode)
}

// ReadTo reads up to count bytes into w. See Channel.ReadTo.
func (s *Session) ReadTo(ctx context.Context, w io.Writer, count int) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.ch.ReadTo(ctx, w, count, s.mode)
}

// WriteFrom writes up to count bytes taken from r. See Channel.WriteFrom.
func (s *Session) WriteFrom(ctx context.Context, r io.Reader, count int) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.ch.WriteFrom(ctx, r, count, s.mode)
}

// Poll reports the channel's readiness.
func (s *Session) Poll(ctx context.Context) (PollMask, error) {
	if err := s.check(); err != nil {
		return PollErr, err
	}
	return s.ch.Poll(ctx)
}

// PollWait waits for any bit of want. See Channel.PollWait.
func (s *Session) PollWait(ctx context.Context, want PollMask) (PollMask, error) {
	if err := s.check(); err != nil {
		return PollErr, err
	}
	return s.ch.PollWait(ctx, want)
}

// Query returns the channel's counters.
func (s *Session) Query(ctx context.Context) (Query, error) {
	if err := s.check(); err != nil {
		return Query{}, err
	}
	return s.ch.Query(ctx)
}

// Control returns one of the channel's counters.
func (s *Session) Control(ctx context.Context, code QueryCode) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.ch.Control(ctx, code)
}

// Clear discards the channel's content.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.ch.Clear(ctx)
}

// Notify routes the channel's readiness events to fn. The session owns at
// most one subscription: the first call creates it, later calls replace the
// callback.
func (s *Session) Notify(fn func(Event)) error {
	if fn == nil {
		return fmt.Errorf("%w: nil notify func", ErrInvalidRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: session %s is closed", ErrInvalidRequest, s.id)
	}
	if s.sub != nil {
		s.sub.setFunc(fn)
		return nil
	}
	sub, err := s.ch.Subscribe(fn)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

// StopNotify removes the session's subscription, if any. A callback already
// running may still be in progress when StopNotify returns.
func (s *Session) StopNotify() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: session %s is closed", ErrInvalidRequest, s.id)
	}
	s.ch.Unsubscribe(s.sub)
	s.sub = nil
	return nil
}

// Close removes the subscription and invalidates the session. No callback
// starts after Close returns, but one already running may still be in
// progress; Close does not wait for it, so a callback may close its own
// session.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("%w: session %s is already closed", ErrInvalidRequest, s.id)
	}
	s.ch.Unsubscribe(s.sub)
	s.sub = nil
	s.closed = true
	onClose := s.onClose
	s.mu.Unlock()

	s.ch.logger.Debug("chardev: close", "channel", s.ch.name, "session", s.id)
	if onClose != nil {
		onClose()
	}
	return nil
}
