package chardev

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Registry owns a fixed set of channels addressed by index.
type Registry struct {
	logger   *slog.Logger
	channels []*Channel

	mu       sync.Mutex
	sessions int
	closed   bool
}

// NewRegistry validates cfg and creates cfg.InstanceCount channels. Creation
// is all or nothing: if any channel fails, the ones already created are
// closed before the error is returned.
func NewRegistry(cfg Config, opts ...Option) (*Registry, error) {
	o := newOptions(opts)
	if err := cfg.Validate(); err != nil {
		o.logger.Error("chardev: invalid config", "instance_count", cfg.InstanceCount, "buffer_size", cfg.BufferSize)
		return nil, err
	}

	channels := make([]*Channel, 0, cfg.InstanceCount)
	for i := range cfg.InstanceCount {
		ch, err := NewChannel(ChannelName(i), cfg.BufferSize, opts...)
		if err != nil {
			o.logger.Error("chardev: can't create channel", "index", i, "error", err)
			for _, created := range channels {
				created.Close()
			}
			return nil, err
		}
		channels = append(channels, ch)
	}

	return &Registry{
		logger:   o.logger,
		channels: channels,
	}, nil
}

// Len returns the number of channels.
func (r *Registry) Len() int {
	return len(r.channels)
}

// Channel returns the channel at index i.
func (r *Registry) Channel(i int) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channelLocked(i)
}

func (r *Registry) channelLocked(i int) (*Channel, error) {
	if r.closed {
		return nil, fmt.Errorf("%w: registry is closed", ErrInvalidRequest)
	}
	if i < 0 || i >= len(r.channels) {
		return nil, fmt.Errorf("%w: no device %d", ErrInvalidRequest, i)
	}
	return r.channels[i], nil
}

// Open opens a session on the channel at index i. The registry cannot be
// closed until the session is.
func (r *Registry) Open(i int, mode Mode) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, err := r.channelLocked(i)
	if err != nil {
		return nil, err
	}
	s, err := Open(ch, mode)
	if err != nil {
		return nil, err
	}
	r.sessions++
	s.onClose = r.release
	return s, nil
}

func (r *Registry) release() {
	r.mu.Lock()
	r.sessions--
	r.mu.Unlock()
}

// Sessions returns the number of sessions currently open.
func (r *Registry) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions
}

// Stats queries every channel in index order.
func (r *Registry) Stats(ctx context.Context) ([]Query, error) {
	stats := make([]Query, len(r.channels))
	for i, ch := range r.channels {
		q, err := ch.Query(ctx)
		if err != nil {
			return nil, err
		}
		stats[i] = q
	}
	return stats, nil
}

// Close destroys every channel. It fails with ErrBusy while any session is
// open, and with ErrInvalidRequest if the registry is already closed.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return fmt.Errorf("%w: registry is closed", ErrInvalidRequest)
	}
	if r.sessions > 0 {
		n := r.sessions
		r.mu.Unlock()
		return fmt.Errorf("%w: %d sessions still open", ErrBusy, n)
	}
	r.closed = true
	r.mu.Unlock()

	var errs []error
	for _, ch := range r.channels {
		if err := ch.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
