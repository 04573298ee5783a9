package commands

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/ringdev/pkg/chardev"
	"github.com/haivivi/ringdev/pkg/devnet"
)

var statAll bool

type deviceStat struct {
	Device   int    `json:"device" yaml:"device"`
	Name     string `json:"name" yaml:"name"`
	Capacity int    `json:"capacity" yaml:"capacity"`
	Ready    int    `json:"ready" yaml:"ready"`
	Free     int    `json:"free" yaml:"free"`
}

type deviceStats []deviceStat

func (s deviceStats) TableHeaders() []string {
	return []string{"DEVICE", "NAME", "CAPACITY", "READY", "FREE"}
}

func (s deviceStats) TableRows() [][]string {
	rows := make([][]string, len(s))
	for i, d := range s {
		rows[i] = []string{
			strconv.Itoa(d.Device),
			d.Name,
			strconv.Itoa(d.Capacity),
			strconv.Itoa(d.Ready),
			strconv.Itoa(d.Free),
		}
	}
	return rows
}

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Show device counters",
	Long: `Show capacity, ready and free bytes of the selected device, or of
every device with --all.

Example:
  ringdev stat --all --format table`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		cfg, err := clientConfig()
		if err != nil {
			return err
		}
		devices := []int{cfg.Device}
		if statAll {
			devices = devices[:0]
			for i := range chardev.MaxInstances {
				devices = append(devices, i)
			}
		}

		var stats deviceStats
		for _, dev := range devices {
			cfg.Device = dev
			c, err := devnet.Connect(ctx, cfg)
			if err != nil {
				if statAll && errors.Is(err, chardev.ErrInvalidRequest) {
					break
				}
				return err
			}
			q, err := c.Query(ctx)
			c.Close()
			if err != nil {
				return err
			}
			stats = append(stats, deviceStat{
				Device:   dev,
				Name:     chardev.ChannelName(dev),
				Capacity: q.Capacity,
				Ready:    q.Ready,
				Free:     q.Free,
			})
		}
		return outputResult(stats)
	},
}

func init() {
	statCmd.Flags().BoolVarP(&statAll, "all", "a", false, "show every device")
}
