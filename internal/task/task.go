// Package task defines the immutable periodic-task value the
// scheduling core places, and the policy and affinity types that ride
// along with it.
package task

import (
	"encoding/json"
	"fmt"
)

// Policy is the scheduling class a task runs under. Unknown wire
// values must be mapped to Normal by the caller before constructing a
// Task; the core never receives an out-of-domain policy.
type Policy int

const (
	PolicyNormal Policy = iota
	PolicyFifo
	PolicyRoundRobin
)

func (p Policy) String() string {
	switch p {
	case PolicyFifo:
		return "fifo"
	case PolicyRoundRobin:
		return "round_robin"
	default:
		return "normal"
	}
}

// MarshalJSON renders Policy as its wire string, not its ordinal.
func (p Policy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON maps a wire string to a Policy, defaulting unknown
// values to PolicyNormal per the inbound contract.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = PolicyFromWire(s)
	return nil
}

// PolicyFromWire maps an arbitrary wire string to a Policy, defaulting
// unknown values to PolicyNormal per the inbound contract.
func PolicyFromWire(s string) Policy {
	switch s {
	case "fifo":
		return PolicyFifo
	case "round_robin", "roundrobin", "rr":
		return PolicyRoundRobin
	default:
		return PolicyNormal
	}
}

// Affinity is a tagged CPU-affinity constraint: either Any CPU, or a
// bitmask pinning the task to a specific set of CPUs.
type Affinity struct {
	pinned bool
	mask   uint64
}

// Any returns the affinity value matching any CPU in the node.
func Any() Affinity { return Affinity{} }

// Pinned returns an affinity constrained to the CPUs set in mask. mask
// must be non-zero; a zero mask is invalid and rejected by Task.Validate.
func Pinned(mask uint64) Affinity { return Affinity{pinned: true, mask: mask} }

// IsPinned reports whether the affinity restricts placement to a CPU
// subset.
func (a Affinity) IsPinned() bool { return a.pinned }

// Mask returns the pinned bitmask. Only meaningful when IsPinned is true.
func (a Affinity) Mask() uint64 { return a.mask }

// Allows reports whether cpu is permitted by this affinity.
func (a Affinity) Allows(cpu int) bool {
	if !a.pinned {
		return true
	}
	return a.mask&(uint64(1)<<uint(cpu)) != 0
}

// LowestCPU returns the index of the lowest set bit in the pinned
// mask, and false if unpinned or the mask is zero.
func (a Affinity) LowestCPU() (int, bool) {
	if !a.pinned || a.mask == 0 {
		return 0, false
	}
	for i := 0; i < 64; i++ {
		if a.mask&(uint64(1)<<uint(i)) != 0 {
			return i, true
		}
	}
	return 0, false
}

// MarshalJSON renders Affinity as the string "any" or a "0x"-prefixed
// hex bitmask.
func (a Affinity) MarshalJSON() ([]byte, error) {
	if !a.pinned {
		return json.Marshal("any")
	}
	return json.Marshal(fmt.Sprintf("%#x", a.mask))
}

// UnmarshalJSON accepts "any" or a "0x"-prefixed hex bitmask.
func (a *Affinity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" || s == "any" {
		*a = Any()
		return nil
	}
	var mask uint64
	if _, err := fmt.Sscanf(s, "0x%x", &mask); err != nil {
		return fmt.Errorf("task: invalid cpu_affinity %q: %w", s, err)
	}
	*a = Pinned(mask)
	return nil
}

// Task is an immutable value describing one periodic task. The zero
// value is not meaningful; construct a literal and call Validate.
type Task struct {
	Name        string   `json:"name"`
	WorkloadID  string   `json:"workload_id"`
	TargetNode  string   `json:"target_node,omitempty"` // empty ≡ any node
	PeriodUS    uint64   `json:"period_us"`
	RuntimeUS   uint64   `json:"runtime_us"`
	DeadlineUS  uint64   `json:"deadline_us"`
	Priority    int      `json:"priority"`
	Policy      Policy   `json:"policy"`
	CPUAffinity Affinity `json:"cpu_affinity"`
	MemoryMB    uint64   `json:"memory_mb,omitempty"` // zero ≡ unconstrained
}

// Utilisation returns RuntimeUS / PeriodUS as a fraction. Callers must
// ensure PeriodUS > 0 (Validate enforces this).
func (t Task) Utilisation() float64 {
	return float64(t.RuntimeUS) / float64(t.PeriodUS)
}

// Validate checks the invariants a Task must satisfy before it can be
// placed: a non-empty name, a positive period, runtime bounded by the
// period, a deadline no later than the period, a priority in [0, 99],
// and a non-zero mask when pinned.
func (t Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("task: name must not be empty")
	}
	if t.PeriodUS == 0 {
		return fmt.Errorf("task %q: period_us must be > 0", t.Name)
	}
	if t.RuntimeUS == 0 || t.RuntimeUS > t.PeriodUS {
		return fmt.Errorf("task %q: runtime_us must satisfy 0 < runtime_us <= period_us (got %d/%d)",
			t.Name, t.RuntimeUS, t.PeriodUS)
	}
	if t.DeadlineUS > t.PeriodUS {
		return fmt.Errorf("task %q: deadline_us must be <= period_us (got %d/%d)",
			t.Name, t.DeadlineUS, t.PeriodUS)
	}
	if t.Priority < 0 || t.Priority > 99 {
		return fmt.Errorf("task %q: priority must be in [0,99] (got %d)", t.Name, t.Priority)
	}
	if t.CPUAffinity.pinned && t.CPUAffinity.mask == 0 {
		return fmt.Errorf("task %q: pinned affinity must have a non-zero mask", t.Name)
	}
	return nil
}
