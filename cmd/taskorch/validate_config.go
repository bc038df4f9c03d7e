package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khryptorgraphics/taskorch/internal/config"
)

func validateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config <file>",
		Short: "Load and validate a node-config YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := config.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%d node(s) loaded:\n", mgr.Len())
			for _, id := range mgr.IDs() {
				n, _ := mgr.Get(id)
				fmt.Printf("  %s: cpus=%v max_utilisation=%.2f max_memory_mb=%d\n",
					n.NodeID, n.CPUs, n.MaxUtilisation, n.MaxMemoryMB)
			}
			return nil
		},
	}
}
