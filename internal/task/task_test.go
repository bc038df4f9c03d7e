package task

import (
	"encoding/json"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := Task{Name: "t", PeriodUS: 100, RuntimeUS: 10, DeadlineUS: 100, Priority: 50}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid task, got %v", err)
	}
}

func TestValidateRejectsBadRuntime(t *testing.T) {
	bad := Task{Name: "t", PeriodUS: 100, RuntimeUS: 200, DeadlineUS: 100}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error: runtime_us > period_us")
	}
}

func TestValidateRejectsZeroMaskPinned(t *testing.T) {
	bad := Task{Name: "t", PeriodUS: 100, RuntimeUS: 10, DeadlineUS: 100, CPUAffinity: Affinity{pinned: true}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error: all-zero pinned mask")
	}
}

func TestAffinityAllowsAndLowestCPU(t *testing.T) {
	a := Pinned(0b1010)
	if a.Allows(0) || !a.Allows(1) || a.Allows(2) || !a.Allows(3) {
		t.Fatalf("Allows mismatched for mask 0b1010")
	}
	lo, ok := a.LowestCPU()
	if !ok || lo != 1 {
		t.Errorf("LowestCPU = %d, %v; want 1, true", lo, ok)
	}
	any := Any()
	if !any.Allows(5) {
		t.Errorf("Any() must allow every cpu")
	}
}

func TestPolicyFromWire(t *testing.T) {
	cases := map[string]Policy{
		"fifo":        PolicyFifo,
		"round_robin": PolicyRoundRobin,
		"rr":          PolicyRoundRobin,
		"bogus":       PolicyNormal,
		"":            PolicyNormal,
	}
	for wire, want := range cases {
		if got := PolicyFromWire(wire); got != want {
			t.Errorf("PolicyFromWire(%q) = %v, want %v", wire, got, want)
		}
	}
}

func TestTaskJSONRoundTrip(t *testing.T) {
	orig := Task{
		Name: "t1", WorkloadID: "W", PeriodUS: 1000, RuntimeUS: 100, DeadlineUS: 1000,
		Priority: 10, Policy: PolicyFifo, CPUAffinity: Pinned(0b101), MemoryMB: 64,
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Task
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != orig {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, orig)
	}
}

func TestAffinityAnyJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(Any())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Affinity
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.IsPinned() {
		t.Errorf("expected unpinned affinity")
	}
}
