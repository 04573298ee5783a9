package chardev

import "fmt"

const (
	// MaxInstances is the largest InstanceCount a Registry accepts.
	MaxInstances = 64
	// MaxBufferSize is the largest BufferSize a Registry accepts.
	MaxBufferSize = 128 * 1024

	// DefaultInstanceCount and DefaultBufferSize are used by DefaultConfig.
	DefaultInstanceCount = 1
	DefaultBufferSize    = 1024

	// NamePrefix prefixes the index in channel names: ringdev0, ringdev1...
	NamePrefix = "ringdev"
)

// Config describes a batch of channels.
type Config struct {
	// InstanceCount is the number of channels, 1..MaxInstances.
	InstanceCount int `json:"instance_count" yaml:"instance_count"`

	// BufferSize is the capacity of each channel in bytes, 1..MaxBufferSize.
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`
}

// DefaultConfig returns a single 1 KiB channel.
func DefaultConfig() Config {
	return Config{
		InstanceCount: DefaultInstanceCount,
		BufferSize:    DefaultBufferSize,
	}
}

// Validate checks both fields against their bounds.
func (c Config) Validate() error {
	if c.InstanceCount < 1 || c.InstanceCount > MaxInstances {
		return fmt.Errorf("%w: instance_count=%d, want 1..%d", ErrInvalidConfig, c.InstanceCount, MaxInstances)
	}
	if c.BufferSize < 1 || c.BufferSize > MaxBufferSize {
		return fmt.Errorf("%w: buffer_size=%d, want 1..%d", ErrInvalidConfig, c.BufferSize, MaxBufferSize)
	}
	return nil
}

// ChannelName returns the name of the channel at index i.
func ChannelName(i int) string {
	return fmt.Sprintf("%s%d", NamePrefix, i)
}
