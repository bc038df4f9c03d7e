// Package schederr defines the structured error taxonomy the
// scheduling core raises: every admission rejection and placement
// failure carries enough numeric detail to reconstruct the decision
// in a post-mortem tool.
package schederr

import "fmt"

// AdmissionReason is the structured rejection reason admission.Check
// returns when a candidate (task, node, CPU) placement is refused.
type AdmissionReason interface {
	error
	isAdmissionReason()
}

// MemoryExceeded is returned when placing the task would push the
// node's total requested memory past its ceiling.
type MemoryExceeded struct {
	Required    uint64
	Capacity    uint64
	AlreadyUsed uint64
}

func (e MemoryExceeded) isAdmissionReason() {}
func (e MemoryExceeded) Error() string {
	return fmt.Sprintf("memory exceeded: required=%d already_used=%d capacity=%d",
		e.Required, e.AlreadyUsed, e.Capacity)
}

// CPUUtilisationExceeded is returned when the incremental utilisation
// of placing the task on a CPU would cross the node's threshold.
type CPUUtilisationExceeded struct {
	CPU       int
	Current   float64
	Added     float64
	Threshold float64
}

func (e CPUUtilisationExceeded) isAdmissionReason() {}
func (e CPUUtilisationExceeded) Error() string {
	return fmt.Sprintf("cpu utilisation exceeded: cpu=%d current=%.4f added=%.4f threshold=%.4f",
		e.CPU, e.Current, e.Added, e.Threshold)
}

// AffinityMismatch is returned when a pinned task's mask excludes the
// candidate CPU.
type AffinityMismatch struct {
	CPU  int
	Mask uint64
}

func (e AffinityMismatch) isAdmissionReason() {}
func (e AffinityMismatch) Error() string {
	return fmt.Sprintf("affinity mismatch: cpu=%d mask=%#x", e.CPU, e.Mask)
}

// NotInNode is a defensive check: the candidate CPU does not belong to
// the node's configured CPU set.
type NotInNode struct {
	CPU  int
	Node string
}

func (e NotInNode) isAdmissionReason() {}
func (e NotInNode) Error() string {
	return fmt.Sprintf("cpu %d not in node %q", e.CPU, e.Node)
}

// SchedulerError is the sum type of every top-level failure mode
// Scheduler.Schedule can surface.
type SchedulerError interface {
	error
	isSchedulerError()
}

// NoTasks is raised when the candidate task list (or workload subset)
// is empty.
type NoTasks struct{}

func (NoTasks) isSchedulerError() {}
func (NoTasks) Error() string     { return "no tasks supplied" }

// NoValidPeriods is raised when every task in a workload carries a
// zero period, so no hyperperiod can be computed.
type NoValidPeriods struct{ WorkloadID string }

func (NoValidPeriods) isSchedulerError() {}
func (e NoValidPeriods) Error() string {
	return fmt.Sprintf("no valid (non-zero) periods in workload %q", e.WorkloadID)
}

// ConfigNotLoaded is raised when Schedule is invoked before a
// node-config manager has been attached to the Scheduler.
type ConfigNotLoaded struct{}

func (ConfigNotLoaded) isSchedulerError() {}
func (ConfigNotLoaded) Error() string     { return "node config manager not loaded" }

// UnknownAlgorithm is raised when the algorithm selector does not name
// one of the three known strategies.
type UnknownAlgorithm struct{ Name string }

func (UnknownAlgorithm) isSchedulerError() {}
func (e UnknownAlgorithm) Error() string {
	return fmt.Sprintf("unknown algorithm %q", e.Name)
}

// MissingWorkloadID is raised during output assembly when a placed
// task carries no workload id to key its hyperperiod.
type MissingWorkloadID struct{ Task string }

func (MissingWorkloadID) isSchedulerError() {}
func (e MissingWorkloadID) Error() string {
	return fmt.Sprintf("task %q missing workload id", e.Task)
}

// MissingTargetNode is raised when a task names a target_node that
// does not exist in the node-config manager.
type MissingTargetNode struct{ Task, Node string }

func (MissingTargetNode) isSchedulerError() {}
func (e MissingTargetNode) Error() string {
	return fmt.Sprintf("task %q targets unknown node %q", e.Task, e.Node)
}

// NoSchedulableNode is raised when every candidate (node, cpu) pair
// refused a task.
type NoSchedulableNode struct{ Task string }

func (NoSchedulableNode) isSchedulerError() {}
func (e NoSchedulableNode) Error() string {
	return fmt.Sprintf("no schedulable node for task %q", e.Task)
}

// AdmissionRejected is raised when a task with a single candidate node
// (explicit target_node, target-node-priority's first pass, or a
// best-fit-decreasing call over a one-node configuration) is refused
// by that node's admission check.
type AdmissionRejected struct {
	Task   string
	Node   string
	Reason AdmissionReason
}

func (AdmissionRejected) isSchedulerError() {}
func (e AdmissionRejected) Error() string {
	return fmt.Sprintf("task %q rejected on node %q: %v", e.Task, e.Node, e.Reason)
}

func (e AdmissionRejected) Unwrap() error { return e.Reason }
