package commands

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/ringdev/pkg/chardev"
	"github.com/haivivi/ringdev/pkg/cli"
	"github.com/haivivi/ringdev/pkg/devnet"
)

const appName = "ringdev"

var (
	// Global flags
	cfgFile      string
	contextName  string
	serverAddr   string
	device       int
	nonBlocking  bool
	outputFile   string
	inputFile    string
	outputFormat string
	outputJSON   bool
	verbose      bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ringdev",
	Short: "Ring buffer character devices over the network",
	Long: `ringdev - byte FIFO devices with blocking and non-blocking sessions.

A server owns a fixed set of devices (ringdev0, ringdev1, ...), each a
fixed-capacity ring buffer shared by any number of readers and writers.
Clients open a session on one device and read, write, poll and query it.

Configuration is stored in ~/.ringdev/ringdev/ and supports multiple contexts,
similar to kubectl's context management.

Examples:
  # Run four 4 KiB devices
  ringdev serve --instances 4 --buffer-size 4096

  # Point the CLI at it
  ringdev config add-context local --server tcp://localhost:7360
  ringdev config use-context local

  # Move bytes through device 2
  echo hello | ringdev -d 2 write
  ringdev -d 2 --nonblock cat
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "", "config file (default is ~/.ringdev/ringdev/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s", "", "server address, overrides the context")
	rootCmd.PersistentFlags().IntVarP(&device, "device", "d", -1, "device index, overrides the context")
	rootCmd.PersistentFlags().BoolVar(&nonBlocking, "nonblock", false, "open the session in non-blocking mode")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "input file (YAML or JSON config, or data for write)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "yaml", "output format: yaml, json or table")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(ctlCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(benchCmd)
}

func initConfig() {
	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

// getConfig returns the global configuration
func getConfig() *cli.Config {
	return globalConfig
}

// clientConfig merges the selected context with the command line overrides.
func clientConfig() (devnet.ClientConfig, error) {
	var cfg devnet.ClientConfig
	cfg.Logger = slog.Default()

	ctx, err := getConfig().ResolveContext(contextName)
	switch {
	case err == nil:
		cfg.Addr = ctx.Server
		cfg.Device = ctx.Device
		if ctx.NonBlocking {
			cfg.Mode = chardev.NonBlocking
		}
		if ctx.Timeout > 0 {
			cfg.ConnectTimeout = time.Duration(ctx.Timeout) * time.Second
		}
		if ctx.Insecure {
			cfg.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		}
	case contextName != "":
		return cfg, err
	}

	if serverAddr != "" {
		cfg.Addr = serverAddr
	}
	if device >= 0 {
		cfg.Device = device
	}
	if nonBlocking {
		cfg.Mode = chardev.NonBlocking
	}
	if cfg.Addr == "" {
		return cfg, fmt.Errorf("no server specified. Use -s, -c or set a default context with 'ringdev config use-context'")
	}
	return cfg, nil
}

// connect opens a session as configured by the flags and context.
func connect(ctx context.Context, onEvent func(chardev.Event)) (*devnet.Client, error) {
	cfg, err := clientConfig()
	if err != nil {
		return nil, err
	}
	cfg.OnEvent = onEvent
	slog.Debug("connecting", "server", cfg.Addr, "device", cfg.Device, "mode", cfg.Mode.String())
	return devnet.Connect(ctx, cfg)
}

// signalContext is cancelled on SIGINT or SIGTERM. A cancelled blocking
// call fails with chardev.ErrInterrupted, which commands treat as a normal
// exit.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func interrupted(err error) bool {
	return errors.Is(err, chardev.ErrInterrupted) || errors.Is(err, context.Canceled)
}

// outputResult outputs the result using cli package
func outputResult(result any) error {
	format := cli.OutputFormat(outputFormat)
	if outputJSON {
		format = cli.FormatJSON
	}
	styles := cli.NewStyles(cli.DefaultTheme)
	return cli.Output(result, cli.OutputOptions{
		Format: format,
		File:   outputFile,
		Styles: &styles,
	})
}
