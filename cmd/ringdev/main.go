// Package main provides the ringdev CLI tool.
//
// Usage:
//
//	ringdev [flags] <command> [args]
//
// Commands:
//
//	serve    - Run a registry of ring buffer devices and serve it over the network
//	cat      - Read from a device to stdout
//	write    - Write arguments or stdin to a device
//	poll     - Show or wait for device readiness
//	ctl      - Read one device counter (size, free, ready)
//	clear    - Discard a device's content
//	stat     - Show counters of one or all devices
//	watch    - Print readiness events
//	bench    - Measure in-process channel throughput
//	config   - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.ringdev/ringdev/
//	Use 'ringdev config' commands to manage contexts.
//
// Exit status:
//
//	Device errors exit with the matching errno, e.g. EAGAIN (11 on Linux)
//	when a non-blocking read finds the device empty. Other errors exit 1.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/ringdev/cmd/ringdev/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
