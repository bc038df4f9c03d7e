// Command taskorch is the CLI host for the global scheduling core: it
// parses options, loads YAML node configuration, and wires the
// upstream intake and downstream dispatch surfaces around the
// synchronous scheduler. None of this logic lives in the core itself.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "taskorch",
		Short:   "Global scheduling core for periodic task orchestration",
		Version: version,
	}

	rootCmd.AddCommand(validateConfigCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
