package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/ringdev/pkg/chardev"
	"github.com/haivivi/ringdev/pkg/cli"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print readiness events of a device",
	Long: `Subscribe to a device and print one line per readiness event until
interrupted. "in" means data arrived, "out" means room was freed.

Example:
  ringdev -d 0 watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		styles := cli.NewStyles(cli.DefaultTheme)
		events := make(chan chardev.Event, 64)
		c, err := connect(ctx, func(ev chardev.Event) {
			select {
			case events <- ev:
			default:
			}
		})
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Notify(ctx); err != nil {
			return err
		}
		cli.PrintInfo("watching session %s, Ctrl-C to stop", c.Session())

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-c.Done():
				return fmt.Errorf("connection closed")
			case ev := <-events:
				dir := styles.Out.Render(ev.Direction.String())
				if ev.Direction == chardev.DirIn {
					dir = styles.In.Render(ev.Direction.String())
				}
				fmt.Printf("%s %s %s\n", styles.Help.Render(time.Now().Format("15:04:05.000")), ev.Channel, dir)
			}
		}
	},
}
