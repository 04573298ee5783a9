package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/ringdev/pkg/chardev"
)

var pollWait string

type pollResult struct {
	Mask     string `json:"mask" yaml:"mask"`
	Readable bool   `json:"readable" yaml:"readable"`
	Writable bool   `json:"writable" yaml:"writable"`
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Show or wait for device readiness",
	Long: `Print the device's poll mask. With --wait, block until the device
becomes readable (in), writable (out) or either (any) first.

Example:
  ringdev -d 0 poll
  ringdev -d 0 poll --wait in`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var want chardev.PollMask
		switch pollWait {
		case "":
		case "in":
			want = chardev.PollIn
		case "out":
			want = chardev.PollOut
		case "any":
			want = chardev.PollIn | chardev.PollOut
		default:
			return fmt.Errorf("--wait must be in, out or any, got %q", pollWait)
		}

		ctx, stop := signalContext(cmd)
		defer stop()

		c, err := connect(ctx, nil)
		if err != nil {
			return err
		}
		defer c.Close()

		var m chardev.PollMask
		if want == 0 {
			m, err = c.Poll(ctx)
		} else {
			m, err = c.PollWait(ctx, want)
		}
		if err != nil {
			return err
		}
		return outputResult(pollResult{Mask: m.String(), Readable: m.Readable(), Writable: m.Writable()})
	},
}

var ctlCmd = &cobra.Command{
	Use:   "ctl <size|free|ready>",
	Short: "Print one device counter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := chardev.ParseQueryCode(args[0])
		if err != nil {
			return err
		}
		ctx, stop := signalContext(cmd)
		defer stop()

		c, err := connect(ctx, nil)
		if err != nil {
			return err
		}
		defer c.Close()

		v, err := c.Control(ctx, code)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard a device's content",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		c, err := connect(ctx, nil)
		if err != nil {
			return err
		}
		defer c.Close()
		return c.Clear(ctx)
	},
}

func init() {
	pollCmd.Flags().StringVar(&pollWait, "wait", "", "wait for in, out or any")
}
