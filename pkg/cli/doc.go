// Package cli provides common CLI utilities for ringdev command-line tools.
//
// This package includes:
//   - Configuration management (contexts naming a server and device)
//   - Output formatting (JSON, YAML, table)
//   - Request file loading (YAML/JSON)
//
// Configuration is stored in ~/.ringdev/<app>/ directory, supporting
// multiple contexts similar to kubectl.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("ringdev")
//	ctx, err := cfg.ResolveContext("")
//
//	cli.Output(stats, cli.OutputOptions{
//	    Format: cli.FormatTable,
//	})
package cli
