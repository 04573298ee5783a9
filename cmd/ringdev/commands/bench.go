package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haivivi/ringdev/pkg/chardev"
	"github.com/haivivi/ringdev/pkg/cli"
)

var (
	benchProducers int
	benchConsumers int
	benchBytes     int64
	benchChunk     int
	benchBufSize   int
)

type benchResult struct {
	Producers int    `json:"producers" yaml:"producers"`
	Consumers int    `json:"consumers" yaml:"consumers"`
	Capacity  int    `json:"capacity" yaml:"capacity"`
	Bytes     int64  `json:"bytes" yaml:"bytes"`
	Elapsed   string `json:"elapsed" yaml:"elapsed"`
	Rate      string `json:"rate" yaml:"rate"`
	Verified  string `json:"verified" yaml:"verified"`
}

func (r benchResult) TableHeaders() []string {
	return []string{"PRODUCERS", "CONSUMERS", "CAPACITY", "BYTES", "ELAPSED", "RATE", "VERIFIED"}
}

func (r benchResult) TableRows() [][]string {
	return [][]string{{
		strconv.Itoa(r.Producers),
		strconv.Itoa(r.Consumers),
		strconv.Itoa(r.Capacity),
		cli.FormatBytes(r.Bytes),
		r.Elapsed,
		r.Rate,
		r.Verified,
	}}
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure in-process channel throughput",
	Long: `Run producers and consumers against one in-process device and
report the throughput.

With one producer and one consumer the byte order is checked end to end.
With more, each producer writes its own byte value and the per-producer
byte counts are checked instead.

Example:
  ringdev bench --producers 4 --consumers 4 --bytes 67108864 --format table`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchProducers < 1 || benchConsumers < 1 || benchChunk < 1 || benchBytes < 1 {
			return fmt.Errorf("producers, consumers, chunk and bytes must be positive")
		}
		if benchProducers > 255 {
			return fmt.Errorf("at most 255 producers")
		}

		reg, err := chardev.NewRegistry(chardev.Config{InstanceCount: 1, BufferSize: benchBufSize},
			chardev.WithLogger(slog.Default()))
		if err != nil {
			return err
		}
		defer reg.Close()

		res, err := runBench(cmd.Context(), reg)
		if err != nil {
			return err
		}
		return outputResult(res)
	},
}

func runBench(parent context.Context, reg *chardev.Registry) (benchResult, error) {
	perProducer := benchBytes / int64(benchProducers)
	total := perProducer * int64(benchProducers)
	ordered := benchProducers == 1 && benchConsumers == 1

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var consumed atomic.Int64
	var mu sync.Mutex
	counts := make([]int64, benchProducers)

	start := time.Now()
	for p := range benchProducers {
		g.Go(func() error {
			s, err := reg.Open(0, chardev.Blocking)
			if err != nil {
				return err
			}
			defer s.Close()

			buf := make([]byte, benchChunk)
			for sent := int64(0); sent < perProducer; {
				chunk := buf[:min(int64(len(buf)), perProducer-sent)]
				for i := range chunk {
					if ordered {
						chunk[i] = byte((sent + int64(i)) % 251)
					} else {
						chunk[i] = byte(p)
					}
				}
				n, err := s.Write(gctx, chunk)
				if err != nil {
					return fmt.Errorf("producer %d: %w", p, err)
				}
				sent += int64(n)
			}
			return nil
		})
	}

	var position int64
	for c := range benchConsumers {
		g.Go(func() error {
			s, err := reg.Open(0, chardev.Blocking)
			if err != nil {
				return err
			}
			defer s.Close()

			local := make([]int64, benchProducers)
			defer func() {
				mu.Lock()
				for i, v := range local {
					counts[i] += v
				}
				mu.Unlock()
			}()

			buf := make([]byte, benchChunk)
			for {
				n, err := s.Read(gctx, buf)
				if err != nil {
					if errors.Is(err, chardev.ErrInterrupted) && consumed.Load() >= total {
						return nil
					}
					return fmt.Errorf("consumer %d: %w", c, err)
				}
				for _, b := range buf[:n] {
					if ordered {
						if want := byte(position % 251); b != want {
							return fmt.Errorf("byte %d: got %d, want %d", position, b, want)
						}
						position++
					} else {
						local[b]++
					}
				}
				if consumed.Add(int64(n)) >= total {
					cancel()
					return nil
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return benchResult{}, err
	}
	elapsed := time.Since(start)

	verified := "counts"
	if ordered {
		verified = "order"
	} else {
		for p, n := range counts {
			if n != perProducer {
				return benchResult{}, fmt.Errorf("producer %d: consumed %d bytes, want %d", p, n, perProducer)
			}
		}
	}

	return benchResult{
		Producers: benchProducers,
		Consumers: benchConsumers,
		Capacity:  benchBufSize,
		Bytes:     total,
		Elapsed:   cli.FormatDuration(elapsed),
		Rate:      cli.FormatRate(total, elapsed),
		Verified:  verified,
	}, nil
}

func init() {
	benchCmd.Flags().IntVar(&benchProducers, "producers", 1, "writer goroutines")
	benchCmd.Flags().IntVar(&benchConsumers, "consumers", 1, "reader goroutines")
	benchCmd.Flags().Int64Var(&benchBytes, "bytes", 16<<20, "total bytes to move")
	benchCmd.Flags().IntVar(&benchChunk, "chunk", 512, "bytes per read and write call")
	benchCmd.Flags().IntVar(&benchBufSize, "buffer-size", chardev.DefaultBufferSize, "device capacity")
}
