package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/ringdev/pkg/chardev"
	"github.com/haivivi/ringdev/pkg/devnet"
)

var (
	catChunk int
	catLimit int64
)

var catCmd = &cobra.Command{
	Use:   "cat",
	Short: "Read from a device to stdout",
	Long: `Read from a device and copy the bytes to stdout (or -o).

A blocking session keeps reading until interrupted or --count bytes were
read. A non-blocking session stops as soon as the device is empty; if it
was empty from the start cat fails with EAGAIN.

Example:
  ringdev -d 0 cat
  ringdev -d 0 --nonblock cat -o drained.bin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkChunk(catChunk); err != nil {
			return err
		}
		ctx, stop := signalContext(cmd)
		defer stop()

		c, err := connect(ctx, nil)
		if err != nil {
			return err
		}
		defer c.Close()

		var w io.Writer = os.Stdout
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		buf := make([]byte, catChunk)
		var total int64
		for catLimit <= 0 || total < catLimit {
			p := buf
			if catLimit > 0 {
				p = buf[:min(int64(len(buf)), catLimit-total)]
			}
			n, err := c.Read(ctx, p)
			if err != nil {
				if (errors.Is(err, chardev.ErrWouldBlock) && total > 0) || interrupted(err) {
					return nil
				}
				return err
			}
			if _, err := w.Write(p[:n]); err != nil {
				return err
			}
			total += int64(n)
		}
		return nil
	},
}

func checkChunk(n int) error {
	if n <= 0 || n > devnet.MaxTransfer {
		return fmt.Errorf("--chunk must be between 1 and %d, got %d", devnet.MaxTransfer, n)
	}
	return nil
}

func init() {
	catCmd.Flags().IntVar(&catChunk, "chunk", 4096, "bytes requested per read")
	catCmd.Flags().Int64VarP(&catLimit, "count", "n", 0, "stop after this many bytes (0: no limit)")
}
