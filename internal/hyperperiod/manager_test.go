package hyperperiod

import (
	"testing"

	"github.com/khryptorgraphics/taskorch/internal/schederr"
	"github.com/khryptorgraphics/taskorch/internal/task"
)

func mkTask(name, workload string, periodUS uint64) task.Task {
	return task.Task{
		Name:       name,
		WorkloadID: workload,
		PeriodUS:   periodUS,
		RuntimeUS:  1,
		DeadlineUS: periodUS,
		Priority:   0,
	}
}

func TestCalculateLCM(t *testing.T) {
	m := NewManager(nil)
	tasks := []task.Task{
		mkTask("t1", "W", 100),
		mkTask("t2", "W", 150),
		mkTask("t3", "W", 200),
	}
	info, err := m.Calculate("W", tasks)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if info.HyperperiodUS != 600 {
		t.Errorf("hyperperiod = %d, want 600", info.HyperperiodUS)
	}
	if info.UniquePeriods != 3 || info.TaskCount != 3 {
		t.Errorf("UniquePeriods/TaskCount = %d/%d, want 3/3", info.UniquePeriods, info.TaskCount)
	}
	if !m.Has("W") {
		t.Errorf("expected cache to hold W")
	}
	got, ok := m.Get("W")
	if !ok || got.HyperperiodUS != 600 {
		t.Errorf("Get(W) = %+v, %v", got, ok)
	}
}

func TestCalculateDivides(t *testing.T) {
	m := NewManager(nil)
	periods := []uint64{100, 150, 200}
	tasks := make([]task.Task, len(periods))
	for i, p := range periods {
		tasks[i] = mkTask("t", "W", p)
	}
	info, err := m.Calculate("W", tasks)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	for _, p := range periods {
		if info.HyperperiodUS%p != 0 {
			t.Errorf("hyperperiod %d does not divide period %d", info.HyperperiodUS, p)
		}
	}
}

func TestCalculateNoTasks(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Calculate("W", nil)
	if _, ok := err.(schederr.NoTasks); !ok {
		t.Fatalf("err = %v, want NoTasks", err)
	}
}

func TestCalculateNoValidPeriods(t *testing.T) {
	m := NewManager(nil)
	tasks := []task.Task{mkTask("t1", "W", 0)}
	_, err := m.Calculate("W", tasks)
	if _, ok := err.(schederr.NoValidPeriods); !ok {
		t.Fatalf("err = %v, want NoValidPeriods", err)
	}
}

func TestClearAndClearAll(t *testing.T) {
	m := NewManager(nil)
	tasks := []task.Task{mkTask("t1", "W1", 100), mkTask("t2", "W2", 200)}
	m.Calculate("W1", tasks)
	m.Calculate("W2", tasks)
	if len(m.All()) != 2 {
		t.Fatalf("expected 2 cached entries")
	}
	m.Clear("W1")
	if m.Has("W1") {
		t.Errorf("W1 should be cleared")
	}
	m.ClearAll()
	if len(m.All()) != 0 {
		t.Errorf("expected empty cache after ClearAll")
	}
}
