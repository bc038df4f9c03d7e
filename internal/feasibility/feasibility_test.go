package feasibility

import (
	"context"
	"testing"

	"github.com/khryptorgraphics/taskorch/internal/config"
	"github.com/khryptorgraphics/taskorch/internal/scheduler"
	"github.com/khryptorgraphics/taskorch/internal/task"
)

func TestBoundSingleTask(t *testing.T) {
	if got := Bound(1); got != 1.0 {
		t.Errorf("Bound(1) = %v, want 1.0", got)
	}
}

func TestBoundKnownValues(t *testing.T) {
	// 2*(2^(1/2)-1) ~= 0.8284
	if got := Bound(2); got < 0.82 || got > 0.83 {
		t.Errorf("Bound(2) = %v, want ~0.8284", got)
	}
}

// S4: five tasks at u=0.17 each, sum 0.85 <= 0.9 (admitted) but
// > 5*(2^(1/5)-1) ~= 0.7435, so feasibility must warn.
func TestS4LiuLaylandWarning(t *testing.T) {
	mgr, err := config.NewManager([]config.Node{{
		NodeID: "A", CPUs: []int{0}, MaxUtilisation: 0.9, MaxMemoryMB: config.UnconstrainedMemoryMB,
	}})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	s := scheduler.New(mgr, nil)

	var tasks []task.Task
	names := []string{"T1", "T2", "T3", "T4", "T5"}
	for _, n := range names {
		tasks = append(tasks, task.Task{
			Name: n, WorkloadID: "W",
			PeriodUS: 10_000, RuntimeUS: 1_700, DeadlineUS: 10_000,
		})
	}
	result, err := s.Schedule(context.Background(), scheduler.BestFitDecreasing, tasks)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	warnings := Report(result)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 feasibility warning, got %d: %+v", len(warnings), warnings)
	}
	w := warnings[0]
	if w.Node != "A" || w.CPU != 0 {
		t.Errorf("warning node/cpu = %s/%d, want A/0", w.Node, w.CPU)
	}
	if w.Sum < 0.84 || w.Sum > 0.86 {
		t.Errorf("warning sum = %v, want ~0.85", w.Sum)
	}
	if w.Bound < 0.74 || w.Bound > 0.75 {
		t.Errorf("warning bound = %v, want ~0.7435", w.Bound)
	}
}

func TestReportNoWarningWhenUnderBound(t *testing.T) {
	mgr, err := config.NewManager([]config.Node{{
		NodeID: "A", CPUs: []int{0}, MaxUtilisation: 0.9, MaxMemoryMB: config.UnconstrainedMemoryMB,
	}})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	s := scheduler.New(mgr, nil)
	tasks := []task.Task{
		{Name: "T1", WorkloadID: "W", PeriodUS: 10_000, RuntimeUS: 1_000, DeadlineUS: 10_000},
	}
	result, err := s.Schedule(context.Background(), scheduler.BestFitDecreasing, tasks)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if warnings := Report(result); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", warnings)
	}
}
