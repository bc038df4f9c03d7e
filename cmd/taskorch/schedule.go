package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/khryptorgraphics/taskorch/internal/config"
	"github.com/khryptorgraphics/taskorch/internal/feasibility"
	"github.com/khryptorgraphics/taskorch/internal/scheduler"
	"github.com/khryptorgraphics/taskorch/internal/task"
)

func scheduleCmd() *cobra.Command {
	var configPath, workloadPath, algorithm string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run one synchronous schedule call against a workload file",
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := config.Load(configPath)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(workloadPath)
			if err != nil {
				return fmt.Errorf("reading workload file: %w", err)
			}
			var tasks []task.Task
			if err := json.Unmarshal(raw, &tasks); err != nil {
				return fmt.Errorf("parsing workload file: %w", err)
			}

			s := scheduler.New(nodes, nil)
			result, err := s.Schedule(context.Background(), algorithm, tasks)
			if err != nil {
				return err
			}

			ordered := make(map[string]scheduler.SchedInfo, len(result))
			ids := make([]string, 0, len(result))
			for id := range result {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				ordered[id] = result[id]
			}

			out, err := json.MarshalIndent(ordered, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling result: %w", err)
			}
			fmt.Println(string(out))

			warnings := feasibility.Report(result)
			if len(warnings) > 0 {
				fmt.Fprintf(os.Stderr, "%d feasibility warning(s):\n", len(warnings))
				for _, w := range warnings {
					fmt.Fprintf(os.Stderr, "  node=%s cpu=%d sum=%.4f bound=%.4f tasks=%v\n",
						w.Node, w.CPU, w.Sum, w.Bound, w.Tasks)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "node config YAML file (required)")
	cmd.Flags().StringVar(&workloadPath, "workload", "", "workload JSON file: a []task.Task array (required)")
	cmd.Flags().StringVar(&algorithm, "algorithm", scheduler.BestFitDecreasing, "placement algorithm")
	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("workload")

	return cmd
}
