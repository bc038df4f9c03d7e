// Package admission implements the per-candidate-placement feasibility
// check shared by every placement algorithm.
package admission

import (
	"github.com/khryptorgraphics/taskorch/internal/config"
	"github.com/khryptorgraphics/taskorch/internal/schederr"
	"github.com/khryptorgraphics/taskorch/internal/task"
)

// NodeUsage tracks the mutable per-node accumulators a single
// Scheduler.Schedule call threads through admission checks: per-CPU
// utilisation and total requested memory. It is born and dies within
// one Schedule call; nothing here persists across calls.
type NodeUsage struct {
	CPUUtil  map[int]float64 // cpu -> accumulated utilisation
	MemoryMB uint64          // total memory_mb committed to this node
}

// NewNodeUsage returns a zeroed usage accumulator for the given
// ordered CPU set.
func NewNodeUsage(cpus []int) *NodeUsage {
	u := &NodeUsage{CPUUtil: make(map[int]float64, len(cpus))}
	for _, c := range cpus {
		u.CPUUtil[c] = 0
	}
	return u
}

// Check evaluates whether t may be placed on (node, cpu) given the
// node's configuration and current usage accumulator. Returns nil on
// admission; otherwise a schederr.AdmissionReason describing why the
// placement was refused. The caller commits the placement (updating
// usage) only after Check returns nil.
func Check(t task.Task, node config.Node, cpu int, usage *NodeUsage) schederr.AdmissionReason {
	if !node.HasCPU(cpu) {
		return schederr.NotInNode{CPU: cpu, Node: node.NodeID}
	}

	if t.CPUAffinity.IsPinned() && !t.CPUAffinity.Allows(cpu) {
		return schederr.AffinityMismatch{CPU: cpu, Mask: t.CPUAffinity.Mask()}
	}

	if t.MemoryMB > 0 {
		if usage.MemoryMB+t.MemoryMB > node.MaxMemoryMB {
			return schederr.MemoryExceeded{
				Required:    t.MemoryMB,
				Capacity:    node.MaxMemoryMB,
				AlreadyUsed: usage.MemoryMB,
			}
		}
	}

	current := usage.CPUUtil[cpu]
	added := t.Utilisation()
	if current+added > node.MaxUtilisation {
		return schederr.CPUUtilisationExceeded{
			CPU:       cpu,
			Current:   current,
			Added:     added,
			Threshold: node.MaxUtilisation,
		}
	}

	return nil
}

// Commit records an admitted placement in the usage accumulator. Must
// only be called after Check returned nil for the same (t, cpu).
func Commit(t task.Task, cpu int, usage *NodeUsage) {
	usage.CPUUtil[cpu] += t.Utilisation()
	usage.MemoryMB += t.MemoryMB
}
