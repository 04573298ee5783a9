package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var writeNewline bool

var writeCmd = &cobra.Command{
	Use:   "write [text...]",
	Short: "Write text or stdin to a device",
	Long: `Write the arguments (joined by spaces) to a device, or stdin or -f
when there are none.

Writes are retried until every byte is accepted: a blocking session waits
for room, a non-blocking session fails once the device is full.

Example:
  ringdev -d 1 write hello world
  ringdev -d 1 write -f payload.bin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		switch {
		case len(args) > 0:
			data = []byte(strings.Join(args, " "))
			if writeNewline {
				data = append(data, '\n')
			}
		case inputFile != "":
			b, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			data = b
		default:
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			data = b
		}

		ctx, stop := signalContext(cmd)
		defer stop()

		c, err := connect(ctx, nil)
		if err != nil {
			return err
		}
		defer c.Close()

		for written := 0; written < len(data); {
			n, err := c.Write(ctx, data[written:])
			if err != nil {
				return fmt.Errorf("wrote %d of %d bytes: %w", written, len(data), err)
			}
			written += n
		}
		return nil
	},
}

func init() {
	writeCmd.Flags().BoolVar(&writeNewline, "newline", true, "append a newline to text arguments")
}
