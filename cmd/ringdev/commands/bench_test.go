package commands

import (
	"context"
	"testing"

	"github.com/haivivi/ringdev/pkg/chardev"
)

func TestRunBench(t *testing.T) {
	tests := []struct {
		name                string
		producers, consumer int
		bytes               int64
		chunk, capacity     int
		verified            string
	}{
		{"ordered", 1, 1, 100_000, 37, 64, "order"},
		{"fan in", 4, 1, 40_000, 16, 32, "counts"},
		{"fan out", 1, 3, 30_000, 8, 7, "counts"},
		{"many", 3, 3, 30_000, 5, 11, "counts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			benchProducers, benchConsumers = tt.producers, tt.consumer
			benchBytes, benchChunk, benchBufSize = tt.bytes, tt.chunk, tt.capacity

			reg, err := chardev.NewRegistry(chardev.Config{InstanceCount: 1, BufferSize: tt.capacity})
			if err != nil {
				t.Fatal(err)
			}
			res, err := runBench(context.Background(), reg)
			if err != nil {
				t.Fatalf("runBench: %v", err)
			}
			if err := reg.Close(); err != nil {
				t.Fatalf("registry close: %v", err)
			}
			if res.Verified != tt.verified {
				t.Errorf("verified = %q, want %q", res.Verified, tt.verified)
			}
			if res.Bytes != tt.bytes/int64(tt.producers)*int64(tt.producers) {
				t.Errorf("bytes = %d", res.Bytes)
			}
		})
	}
}
