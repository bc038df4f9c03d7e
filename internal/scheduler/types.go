package scheduler

import "github.com/khryptorgraphics/taskorch/internal/task"

// SchedTask is the scheduler's view of a task after placement: the
// node agent's launch descriptor. Times are nanoseconds, converted
// from the task's microsecond fields via saturating multiplication —
// the only unit conversion the core performs, at this outbound
// boundary.
type SchedTask struct {
	Name           string      `json:"name"`
	PIDPlaceholder string      `json:"pid_placeholder"`
	AssignedCPU    int         `json:"assigned_cpu"`
	Priority       int         `json:"priority"`
	Policy         task.Policy `json:"policy"`
	PeriodNS       uint64      `json:"period_ns"`
	RuntimeNS      uint64      `json:"runtime_ns"`
	DeadlineNS     uint64      `json:"deadline_ns"`
	ReleaseTimeNS  uint64      `json:"release_time_ns"`
}

const usToNSFactor = 1000

// saturatingUSToNS converts microseconds to nanoseconds, saturating at
// math.MaxUint64 instead of wrapping on overflow.
func saturatingUSToNS(us uint64) uint64 {
	const maxU64 = ^uint64(0)
	if us > maxU64/usToNSFactor {
		return maxU64
	}
	return us * usToNSFactor
}

// SchedInfo is the per-node schedule descriptor produced by Schedule:
// the tasks pinned to that node's CPUs, ordered by priority descending
// then name ascending, plus the workload hyperperiod they share.
type SchedInfo struct {
	NodeID        string      `json:"node_id"`
	Tasks         []SchedTask `json:"tasks"`
	HyperperiodUS uint64      `json:"hyperperiod_us"`
}
