// Package scheduler implements the global placement engine: three
// interchangeable algorithms sharing a unified per-CPU utilisation
// admission model, dispatched from a single Schedule entry point.
package scheduler

import (
	"context"
	"log/slog"
	"sort"

	"github.com/khryptorgraphics/taskorch/internal/config"
	"github.com/khryptorgraphics/taskorch/internal/hyperperiod"
	"github.com/khryptorgraphics/taskorch/internal/schederr"
	"github.com/khryptorgraphics/taskorch/internal/task"
)

// Algorithm names recognised by Schedule.
const (
	BestFitDecreasing  = "best_fit_decreasing"
	LeastLoaded        = "least_loaded"
	TargetNodePriority = "target_node_priority"
)

// Scheduler is the synchronous, CPU-bound global placement engine.
// A Scheduler holds only a shared reference to its node-config
// manager (immutable after construction) and its hyperperiod cache
// (the sole mutable cross-call state); everything else a Schedule
// call needs is allocated fresh for that call and dropped on return.
type Scheduler struct {
	nodes  *config.Manager
	hp     *hyperperiod.Manager
	logger *slog.Logger
}

// New constructs a Scheduler bound to nodes. Panics if nodes is nil:
// a Scheduler without a node-config manager cannot place anything, so
// callers must resolve configuration before constructing one.
func New(nodes *config.Manager, logger *slog.Logger) *Scheduler {
	if nodes == nil {
		panic("scheduler: New called with a nil node config manager")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{nodes: nodes, hp: hyperperiod.NewManager(logger), logger: logger}
}

// HyperperiodManager returns the scheduler's hyperperiod cache. Callers
// outside the core should treat it as read-only.
func (s *Scheduler) HyperperiodManager() *hyperperiod.Manager { return s.hp }

// Schedule places tasks onto the scheduler's configured nodes using
// the named algorithm, returning a map from node id to that node's
// schedule descriptor. Placement walks nodes and CPUs in a sorted order
// and each node's descriptor is built independently of map iteration
// order, so the result is deterministic across repeated calls with
// identical input even though a Go map has no order of its own —
// callers that must emit an ordered representation (JSON, logs) should
// range over slices.Sorted(maps.Keys(result)).
func (s *Scheduler) Schedule(ctx context.Context, algorithm string, tasks []task.Task) (map[string]SchedInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, schederr.NoTasks{}
	}
	if s.nodes == nil || s.nodes.Len() == 0 {
		return nil, schederr.ConfigNotLoaded{}
	}

	var run func([]task.Task, *callState) ([]placement, error)
	switch algorithm {
	case BestFitDecreasing:
		run = bestFitDecreasing
	case LeastLoaded:
		run = leastLoaded
	case TargetNodePriority:
		run = targetNodePriority
	default:
		return nil, schederr.UnknownAlgorithm{Name: algorithm}
	}

	cs := newCallState(s.nodes)
	placements, err := run(tasks, cs)
	if err != nil {
		return nil, err
	}

	return s.assemble(placements)
}

// assemble groups placements by node id, sorts each node's task list
// by (priority desc, name asc), and attaches each node's hyperperiod.
func (s *Scheduler) assemble(placements []placement) (map[string]SchedInfo, error) {
	byNode := make(map[string][]placement)
	for _, p := range placements {
		if p.task.WorkloadID == "" {
			return nil, schederr.MissingWorkloadID{Task: p.task.Name}
		}
		byNode[p.node] = append(byNode[p.node], p)
	}

	workloadOf := make(map[string]string) // node id -> chosen workload id for hyperperiod
	allTasks := make([]task.Task, len(placements))
	for i, p := range placements {
		allTasks[i] = p.task
	}

	result := make(map[string]SchedInfo, len(byNode))
	for nodeID, ps := range byNode {
		workloadIDs := make(map[string]struct{})
		for _, p := range ps {
			workloadIDs[p.task.WorkloadID] = struct{}{}
		}
		chosen := lowestKey(workloadIDs)
		workloadOf[nodeID] = chosen

		info, err := s.hp.Calculate(chosen, allTasks)
		if err != nil {
			return nil, err
		}

		schedTasks := make([]SchedTask, len(ps))
		for i, p := range ps {
			schedTasks[i] = toSchedTask(p)
		}
		sort.SliceStable(schedTasks, func(i, j int) bool {
			if schedTasks[i].Priority != schedTasks[j].Priority {
				return schedTasks[i].Priority > schedTasks[j].Priority
			}
			return schedTasks[i].Name < schedTasks[j].Name
		})

		result[nodeID] = SchedInfo{
			NodeID:        nodeID,
			Tasks:         schedTasks,
			HyperperiodUS: info.HyperperiodUS,
		}
	}
	return result, nil
}

func lowestKey(m map[string]struct{}) string {
	var lowest string
	first := true
	for k := range m {
		if first || k < lowest {
			lowest = k
			first = false
		}
	}
	return lowest
}

func toSchedTask(p placement) SchedTask {
	return SchedTask{
		Name:           p.task.Name,
		PIDPlaceholder: p.task.Name,
		AssignedCPU:    p.cpu,
		Priority:       p.task.Priority,
		Policy:         p.task.Policy,
		PeriodNS:       saturatingUSToNS(p.task.PeriodUS),
		RuntimeNS:      saturatingUSToNS(p.task.RuntimeUS),
		DeadlineNS:     saturatingUSToNS(p.task.DeadlineUS),
		ReleaseTimeNS:  0,
	}
}
