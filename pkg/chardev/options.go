package chardev

import (
	"log/slog"

	"github.com/haivivi/ringdev/pkg/buffer"
)

// Option configures a Channel or a Registry.
type Option func(*options)

type options struct {
	logger *slog.Logger
	alloc  buffer.Allocator
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithLogger sets the logger. If unset, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAllocator sets the allocator used for ring storage. Allocation errors
// surface as ErrOutOfMemory.
func WithAllocator(alloc buffer.Allocator) Option {
	return func(o *options) { o.alloc = alloc }
}
