package commands

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/ringdev/pkg/chardev"
	"github.com/haivivi/ringdev/pkg/cli"
	"github.com/haivivi/ringdev/pkg/devnet"
)

var (
	serveListen  []string
	serveTLSCert string
	serveTLSKey  string
	serveCount   int
	serveBufSize int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a device registry and serve it",
	Long: `Create the devices and serve them until interrupted.

The registry config is read from -f, or from ~/.ringdev/ringdev/registry.yaml
when that file exists:

  instance_count: 4   # 1..64, default 1
  buffer_size: 4096   # 1..131072 bytes, default 1024

--instances and --buffer-size override the file.

Listen addresses take a network prefix: tcp://, tls://, ws:// or wss://.
tls and wss need --tls-cert and --tls-key.

Example:
  ringdev serve --instances 4 --listen tcp://:7360 --listen ws://:8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := registryConfig(cmd)
		if err != nil {
			return err
		}

		var tlsConfig *tls.Config
		if serveTLSCert != "" || serveTLSKey != "" {
			cert, err := tls.LoadX509KeyPair(serveTLSCert, serveTLSKey)
			if err != nil {
				return fmt.Errorf("failed to load TLS key pair: %w", err)
			}
			tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
		}

		reg, err := chardev.NewRegistry(cfg, chardev.WithLogger(slog.Default()))
		if err != nil {
			return err
		}

		listeners := make([]net.Listener, 0, len(serveListen))
		for _, addr := range serveListen {
			ln, err := devnet.ListenURL(addr, tlsConfig)
			if err != nil {
				for _, l := range listeners {
					l.Close()
				}
				reg.Close()
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			slog.Info("listening", "addr", addr, "local", ln.Addr())
			listeners = append(listeners, ln)
		}
		ml := devnet.NewMultiListener(listeners...)

		srv := &devnet.Server{
			Registry: reg,
			Logger:   slog.Default(),
			OnOpen: func(s *chardev.Session, remote net.Addr) {
				slog.Info("session opened", "session", s.ID(), "device", s.Channel().Name(), "mode", s.Mode().String(), "remote", remote)
			},
			OnClose: func(s *chardev.Session) {
				slog.Info("session closed", "session", s.ID(), "device", s.Channel().Name())
			},
		}

		ctx, stop := signalContext(cmd)
		defer stop()
		errc := make(chan error, 1)
		go func() { errc <- srv.Serve(ml) }()

		slog.Info("devices ready", "count", cfg.InstanceCount, "buffer_size", cfg.BufferSize)
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
		case err = <-errc:
		}

		ml.Close()
		srv.Close()
		if cerr := reg.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return err
	},
}

// registryConfig layers defaults, the config file and flags.
func registryConfig(cmd *cobra.Command) (chardev.Config, error) {
	cfg := chardev.DefaultConfig()

	path := inputFile
	if path == "" {
		if paths, err := cli.NewPaths(appName); err == nil {
			if _, err := os.Stat(paths.RegistryFile()); err == nil {
				path = paths.RegistryFile()
			}
		}
	}
	if path != "" {
		if err := cli.LoadRequest(path, &cfg); err != nil {
			return cfg, fmt.Errorf("registry config %s: %w", path, err)
		}
		slog.Debug("loaded registry config", "path", path)
	}

	if cmd.Flags().Changed("instances") {
		cfg.InstanceCount = serveCount
	}
	if cmd.Flags().Changed("buffer-size") {
		cfg.BufferSize = serveBufSize
	}
	return cfg, cfg.Validate()
}

func init() {
	serveCmd.Flags().StringArrayVarP(&serveListen, "listen", "l", []string{"tcp://:" + devnet.DefaultPort}, "listen address (repeatable)")
	serveCmd.Flags().StringVar(&serveTLSCert, "tls-cert", "", "TLS certificate file")
	serveCmd.Flags().StringVar(&serveTLSKey, "tls-key", "", "TLS key file")
	serveCmd.Flags().IntVar(&serveCount, "instances", chardev.DefaultInstanceCount, "number of devices (1-64)")
	serveCmd.Flags().IntVar(&serveBufSize, "buffer-size", chardev.DefaultBufferSize, "bytes per device (1-131072)")
}
