// Package hyperperiod computes and caches the least-common-multiple
// hyperperiod of a workload's distinct task periods. The cache is the
// only persistent mutable state in the scheduling core and must be
// driven under a single-writer discipline.
package hyperperiod

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/khryptorgraphics/taskorch/internal/numeric"
	"github.com/khryptorgraphics/taskorch/internal/schederr"
	"github.com/khryptorgraphics/taskorch/internal/task"
)

// Info is the computed hyperperiod summary for one workload.
type Info struct {
	WorkloadID    string
	HyperperiodUS uint64
	UniquePeriods int
	TaskCount     int
}

// Manager caches hyperperiod computations keyed by workload id.
// A Manager must not be shared across goroutines without external
// synchronization beyond what its own methods provide; each exported
// method locks internally for the duration of the call only.
type Manager struct {
	mu     sync.Mutex
	logger *slog.Logger
	cache  map[string]Info
}

// NewManager constructs an empty hyperperiod cache. A nil logger
// falls back to slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger, cache: make(map[string]Info)}
}

// Calculate filters tasks by workloadID, computes the LCM of their
// distinct non-zero periods, caches the result, and returns it.
func (m *Manager) Calculate(workloadID string, tasks []task.Task) (Info, error) {
	var filtered []task.Task
	for _, t := range tasks {
		if t.WorkloadID == workloadID {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return Info{}, schederr.NoTasks{}
	}

	periodSet := make(map[uint64]struct{})
	for _, t := range filtered {
		if t.PeriodUS != 0 {
			periodSet[t.PeriodUS] = struct{}{}
		}
	}
	if len(periodSet) == 0 {
		return Info{}, schederr.NoValidPeriods{WorkloadID: workloadID}
	}

	periods := make([]uint64, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })

	hp := numeric.LCMMany(periods, m.logger)
	info := Info{
		WorkloadID:    workloadID,
		HyperperiodUS: hp,
		UniquePeriods: len(periods),
		TaskCount:     len(filtered),
	}

	m.mu.Lock()
	m.cache[workloadID] = info
	m.mu.Unlock()

	return info, nil
}

// Get returns the cached Info for workloadID and whether it was found.
func (m *Manager) Get(workloadID string) (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.cache[workloadID]
	return info, ok
}

// Has reports whether workloadID has a cached hyperperiod.
func (m *Manager) Has(workloadID string) bool {
	_, ok := m.Get(workloadID)
	return ok
}

// Clear removes the cached entry for workloadID, if any.
func (m *Manager) Clear(workloadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, workloadID)
}

// ClearAll empties the cache.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]Info)
}

// All returns a snapshot of every cached Info, ordered by workload id.
func (m *Manager) All() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.cache))
	for id := range m.cache {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Info, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.cache[id])
	}
	return out
}
