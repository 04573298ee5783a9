package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/ringdev/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

A context names a server and the device used by default,
similar to kubectl's context management.

Configuration is stored in ~/.ringdev/ringdev/config.yaml`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with the specified name. The global --server,
--device and --nonblock flags set the context's values.

Example:
  ringdev config add-context local --server tcp://localhost:7360
  ringdev config add-context edge --server wss://edge.example.com/ringdev --device 3 --insecure`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		if serverAddr == "" {
			return fmt.Errorf("--server is required")
		}
		timeout, err := cmd.Flags().GetInt("timeout")
		if err != nil {
			return fmt.Errorf("failed to read 'timeout' flag: %w", err)
		}
		insecure, err := cmd.Flags().GetBool("insecure")
		if err != nil {
			return fmt.Errorf("failed to read 'insecure' flag: %w", err)
		}

		ctx := &cli.Context{
			Server:      serverAddr,
			Device:      max(device, 0),
			NonBlocking: nonBlocking,
			Timeout:     timeout,
			Insecure:    insecure,
		}
		if err := getConfig().AddContext(name, ctx); err != nil {
			return err
		}

		cli.PrintSuccess("Context %q added successfully", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := getConfig().DeleteContext(name); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q deleted", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := getConfig().UseContext(name); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context %q", name)
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Display the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg.CurrentContext == "" {
			fmt.Println("No current context set")
			return nil
		}
		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

// contextList prints as a table of contexts.
type contextList struct {
	Current  string         `json:"current_context" yaml:"current_context"`
	Contexts []*cli.Context `json:"contexts" yaml:"contexts"`
}

func (l contextList) TableHeaders() []string {
	return []string{"CURRENT", "NAME", "SERVER", "DEVICE", "MODE"}
}

func (l contextList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Contexts))
	for _, ctx := range l.Contexts {
		current := ""
		if ctx.Name == l.Current {
			current = "*"
		}
		mode := "blocking"
		if ctx.NonBlocking {
			mode = "nonblocking"
		}
		rows = append(rows, []string{current, ctx.Name, ctx.Server, strconv.Itoa(ctx.Device), mode})
	}
	return rows
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if len(cfg.Contexts) == 0 {
			fmt.Println("No contexts configured")
			return nil
		}

		list := contextList{Current: cfg.CurrentContext}
		for _, name := range cfg.ListContexts() {
			list.Contexts = append(list.Contexts, cfg.Contexts[name])
		}
		styles := cli.NewStyles(cli.DefaultTheme)
		return cli.Output(list, cli.OutputOptions{Format: cli.FormatTable, Styles: &styles})
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		fmt.Printf("Config file: %s\n", cfg.Path())
		return cli.Output(cfg, cli.OutputOptions{Format: cli.FormatYAML})
	},
}

func init() {
	configAddContextCmd.Flags().Int("timeout", 0, "connect timeout in seconds")
	configAddContextCmd.Flags().Bool("insecure", false, "skip TLS certificate verification")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
}
