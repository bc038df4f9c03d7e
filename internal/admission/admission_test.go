package admission

import (
	"testing"

	"github.com/khryptorgraphics/taskorch/internal/config"
	"github.com/khryptorgraphics/taskorch/internal/schederr"
	"github.com/khryptorgraphics/taskorch/internal/task"
)

func node(t *testing.T, maxUtil float64, maxMem uint64, cpus []int) config.Node {
	t.Helper()
	return config.Node{NodeID: "A", CPUs: cpus, MaxUtilisation: maxUtil, MaxMemoryMB: maxMem}
}

func TestCheckMemoryExceeded(t *testing.T) {
	n := node(t, 0.9, 128, []int{0})
	usage := NewNodeUsage(n.CPUs)
	t1 := task.Task{Name: "t1", PeriodUS: 10, RuntimeUS: 1, MemoryMB: 100}
	if reason := Check(t1, n, 0, usage); reason != nil {
		t.Fatalf("t1 rejected: %v", reason)
	}
	Commit(t1, 0, usage)

	t2 := task.Task{Name: "t2", PeriodUS: 10, RuntimeUS: 1, MemoryMB: 100}
	reason := Check(t2, n, 0, usage)
	mem, ok := reason.(schederr.MemoryExceeded)
	if !ok {
		t.Fatalf("reason = %v, want MemoryExceeded", reason)
	}
	if mem.Required != 100 || mem.Capacity != 128 || mem.AlreadyUsed != 100 {
		t.Errorf("MemoryExceeded = %+v, want {100,128,100}", mem)
	}
}

func TestCheckMemoryWaivedWhenZero(t *testing.T) {
	n := node(t, 0.9, 1, []int{0})
	usage := NewNodeUsage(n.CPUs)
	tk := task.Task{Name: "t", PeriodUS: 10, RuntimeUS: 1, MemoryMB: 0}
	if reason := Check(tk, n, 0, usage); reason != nil {
		t.Errorf("zero memory_mb must never be rejected, got %v", reason)
	}
}

func TestCheckCPUUtilisationExceeded(t *testing.T) {
	n := node(t, 0.5, config.UnconstrainedMemoryMB, []int{0})
	usage := NewNodeUsage(n.CPUs)
	t1 := task.Task{Name: "t1", PeriodUS: 10, RuntimeUS: 4} // util 0.4
	if reason := Check(t1, n, 0, usage); reason != nil {
		t.Fatalf("t1 rejected: %v", reason)
	}
	Commit(t1, 0, usage)

	t2 := task.Task{Name: "t2", PeriodUS: 10, RuntimeUS: 2} // util 0.2, 0.4+0.2=0.6 > 0.5
	reason := Check(t2, n, 0, usage)
	cu, ok := reason.(schederr.CPUUtilisationExceeded)
	if !ok {
		t.Fatalf("reason = %v, want CPUUtilisationExceeded", reason)
	}
	if cu.CPU != 0 || cu.Threshold != 0.5 {
		t.Errorf("CPUUtilisationExceeded = %+v", cu)
	}

	// Exactly at the threshold must be admitted.
	t3 := task.Task{Name: "t3", PeriodUS: 10, RuntimeUS: 1} // util 0.1, 0.4+0.1=0.5 == threshold
	if reason := Check(t3, n, 0, usage); reason != nil {
		t.Errorf("exact-threshold placement rejected: %v", reason)
	}
}

func TestCheckAffinityMismatch(t *testing.T) {
	n := node(t, 0.9, config.UnconstrainedMemoryMB, []int{0, 1, 2, 3})
	usage := NewNodeUsage(n.CPUs)
	tk := task.Task{Name: "t", PeriodUS: 10, RuntimeUS: 1, CPUAffinity: task.Pinned(0b1000)}
	if reason := Check(tk, n, 0, usage); reason == nil {
		t.Fatalf("expected affinity mismatch on cpu 0")
	}
	if reason := Check(tk, n, 3, usage); reason != nil {
		t.Errorf("cpu 3 should be allowed, got %v", reason)
	}
}

func TestCheckNotInNode(t *testing.T) {
	n := node(t, 0.9, config.UnconstrainedMemoryMB, []int{0, 1})
	usage := NewNodeUsage(n.CPUs)
	tk := task.Task{Name: "t", PeriodUS: 10, RuntimeUS: 1}
	reason := Check(tk, n, 5, usage)
	if _, ok := reason.(schederr.NotInNode); !ok {
		t.Fatalf("reason = %v, want NotInNode", reason)
	}
}
