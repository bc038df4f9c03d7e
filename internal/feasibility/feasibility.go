// Package feasibility implements the post-schedule Liu & Layland
// sufficiency check. It never rejects a schedule; it only reports.
package feasibility

import (
	"math"
	"sort"

	"github.com/khryptorgraphics/taskorch/internal/scheduler"
)

// Warning carries one CPU's feasibility shortfall: the sum of placed
// utilisations exceeded the Liu & Layland bound for that CPU's task
// count.
type Warning struct {
	Node  string
	CPU   int
	Sum   float64
	Bound float64
	Tasks []string
}

// Bound returns the Liu & Layland sufficient-schedulability bound for
// k independent periodic tasks under rate-monotonic priority
// assignment: k*(2^(1/k) - 1). Bound(1) is defined as 1.0.
func Bound(k int) float64 {
	if k <= 0 {
		return 0
	}
	if k == 1 {
		return 1.0
	}
	return float64(k) * (math.Pow(2, 1/float64(k)) - 1)
}

// Report evaluates every node/CPU pair in schedule against the Liu &
// Layland bound and returns one Warning per CPU whose summed
// utilisation exceeds it. The schedule itself is never modified or
// rejected; this is purely informational.
func Report(schedule map[string]scheduler.SchedInfo) []Warning {
	nodeIDs := make([]string, 0, len(schedule))
	for id := range schedule {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	var warnings []Warning
	for _, nodeID := range nodeIDs {
		info := schedule[nodeID]

		byCPU := make(map[int][]scheduler.SchedTask)
		for _, t := range info.Tasks {
			byCPU[t.AssignedCPU] = append(byCPU[t.AssignedCPU], t)
		}
		cpus := make([]int, 0, len(byCPU))
		for c := range byCPU {
			cpus = append(cpus, c)
		}
		sort.Ints(cpus)

		for _, cpu := range cpus {
			tasks := byCPU[cpu]
			var sum float64
			names := make([]string, len(tasks))
			for i, t := range tasks {
				if t.PeriodNS > 0 {
					sum += float64(t.RuntimeNS) / float64(t.PeriodNS)
				}
				names[i] = t.Name
			}
			bound := Bound(len(tasks))
			if sum > bound {
				warnings = append(warnings, Warning{
					Node:  nodeID,
					CPU:   cpu,
					Sum:   sum,
					Bound: bound,
					Tasks: names,
				})
			}
		}
	}
	return warnings
}
