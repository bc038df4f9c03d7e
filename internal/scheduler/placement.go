package scheduler

import (
	"sort"

	"github.com/khryptorgraphics/taskorch/internal/admission"
	"github.com/khryptorgraphics/taskorch/internal/config"
	"github.com/khryptorgraphics/taskorch/internal/schederr"
	"github.com/khryptorgraphics/taskorch/internal/task"
)

// placement is one task's resolved (node, cpu) assignment, recorded
// in the order the algorithm placed it.
type placement struct {
	task task.Task
	node string
	cpu  int
}

// callState is the per-Schedule-call mutable state: fresh per-CPU
// utilisation and memory accumulators born and dropped within a
// single Schedule invocation, never shared across calls.
type callState struct {
	nodes *config.Manager
	usage map[string]*admission.NodeUsage
}

func newCallState(nodes *config.Manager) *callState {
	usage := make(map[string]*admission.NodeUsage, nodes.Len())
	for _, id := range nodes.IDs() {
		n, _ := nodes.Get(id)
		usage[id] = admission.NewNodeUsage(n.CPUs)
	}
	return &callState{nodes: nodes, usage: usage}
}

// sortedCPUs returns node's CPUs ordered by current utilisation
// ascending, tie-broken by CPU index ascending. When preferHighUtil is
// true the order is reversed afterwards, so the busiest feasible CPU
// is tried first (best-fit-decreasing bin packing).
func sortedCPUs(node config.Node, usage *admission.NodeUsage, preferHighUtil bool) []int {
	cpus := append([]int(nil), node.CPUs...)
	sort.SliceStable(cpus, func(i, j int) bool {
		return usage.CPUUtil[cpus[i]] < usage.CPUUtil[cpus[j]]
	})
	if preferHighUtil {
		for i, j := 0, len(cpus)-1; i < j; i, j = i+1, j-1 {
			cpus[i], cpus[j] = cpus[j], cpus[i]
		}
	}
	return cpus
}

// nodeUtilisation returns the mean per-CPU utilisation of a node's
// current accumulator.
func nodeUtilisation(node config.Node, usage *admission.NodeUsage) float64 {
	if len(node.CPUs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range node.CPUs {
		sum += usage.CPUUtil[c]
	}
	return sum / float64(len(node.CPUs))
}

// tryPlaceOnNode attempts to admit t onto nodeID, trying CPUs in the
// order sortedCPUs produces. Returns the first admitting CPU, or the
// last rejection reason seen if every CPU refused.
func tryPlaceOnNode(t task.Task, nodeID string, cs *callState, preferHighUtil bool) (cpu int, ok bool, reason schederr.AdmissionReason) {
	node, _ := cs.nodes.Get(nodeID)
	usage := cs.usage[nodeID]
	for _, c := range sortedCPUs(node, usage, preferHighUtil) {
		r := admission.Check(t, node, c, usage)
		if r == nil {
			admission.Commit(t, c, usage)
			return c, true, nil
		}
		reason = r
	}
	return 0, false, reason
}

// bestFitDecreasing sorts tasks by utilisation descending (stable
// tie-break by name ascending), then for each task tries candidate
// nodes in id order, filling the busiest feasible CPU first on each.
func bestFitDecreasing(tasks []task.Task, cs *callState) ([]placement, error) {
	sorted := append([]task.Task(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ui, uj := sorted[i].Utilisation(), sorted[j].Utilisation()
		if ui != uj {
			return ui > uj
		}
		return sorted[i].Name < sorted[j].Name
	})

	var placements []placement
	for _, t := range sorted {
		p, err := placeOneBFD(t, cs)
		if err != nil {
			return nil, err
		}
		placements = append(placements, p)
	}
	return placements, nil
}

func placeOneBFD(t task.Task, cs *callState) (placement, error) {
	candidates, err := candidateNodes(t, cs)
	if err != nil {
		return placement{}, err
	}

	var lastReason schederr.AdmissionReason
	for _, nodeID := range candidates {
		cpu, ok, reason := tryPlaceOnNode(t, nodeID, cs, true)
		if ok {
			return placement{task: t, node: nodeID, cpu: cpu}, nil
		}
		lastReason = reason
	}

	if len(candidates) == 1 {
		return placement{}, schederr.AdmissionRejected{Task: t.Name, Node: candidates[0], Reason: lastReason}
	}
	return placement{}, schederr.NoSchedulableNode{Task: t.Name}
}

// candidateNodes resolves the ordered list of nodes eligible for t:
// the singleton target node if set (validated to exist), else every
// configured node in id order.
func candidateNodes(t task.Task, cs *callState) ([]string, error) {
	if t.TargetNode != "" {
		if _, ok := cs.nodes.Get(t.TargetNode); !ok {
			return nil, schederr.MissingTargetNode{Task: t.Name, Node: t.TargetNode}
		}
		return []string{t.TargetNode}, nil
	}
	return cs.nodes.IDs(), nil
}

// leastLoaded preserves input task order; for each task, candidate
// nodes are sorted by current mean node utilisation ascending
// (tie-break node id), and within each node CPUs are tried
// least-utilised first.
func leastLoaded(tasks []task.Task, cs *callState) ([]placement, error) {
	var placements []placement
	for _, t := range tasks {
		p, err := placeOneLeastLoaded(t, cs)
		if err != nil {
			return nil, err
		}
		placements = append(placements, p)
	}
	return placements, nil
}

func placeOneLeastLoaded(t task.Task, cs *callState) (placement, error) {
	candidates, err := candidateNodes(t, cs)
	if err != nil {
		return placement{}, err
	}

	if t.TargetNode == "" {
		sort.SliceStable(candidates, func(i, j int) bool {
			ni, _ := cs.nodes.Get(candidates[i])
			nj, _ := cs.nodes.Get(candidates[j])
			ui := nodeUtilisation(ni, cs.usage[candidates[i]])
			uj := nodeUtilisation(nj, cs.usage[candidates[j]])
			if ui != uj {
				return ui < uj
			}
			return candidates[i] < candidates[j]
		})
	}

	var lastReason schederr.AdmissionReason
	for _, nodeID := range candidates {
		cpu, ok, reason := tryPlaceOnNode(t, nodeID, cs, false)
		if ok {
			return placement{task: t, node: nodeID, cpu: cpu}, nil
		}
		lastReason = reason
	}

	if t.TargetNode != "" {
		return placement{}, schederr.AdmissionRejected{Task: t.Name, Node: t.TargetNode, Reason: lastReason}
	}
	return placement{}, schederr.NoSchedulableNode{Task: t.Name}
}

// targetNodePriority places tasks with an explicit target_node first
// (in their original relative order), then places the remaining tasks
// with best-fit-decreasing across every node.
func targetNodePriority(tasks []task.Task, cs *callState) ([]placement, error) {
	var pinned, unpinned []task.Task
	for _, t := range tasks {
		if t.TargetNode != "" {
			pinned = append(pinned, t)
		} else {
			unpinned = append(unpinned, t)
		}
	}

	var placements []placement
	for _, t := range pinned {
		candidates, err := candidateNodes(t, cs)
		if err != nil {
			return nil, err
		}
		cpu, ok, reason := tryPlaceOnNode(t, candidates[0], cs, true)
		if !ok {
			return nil, schederr.AdmissionRejected{Task: t.Name, Node: candidates[0], Reason: reason}
		}
		placements = append(placements, placement{task: t, node: candidates[0], cpu: cpu})
	}

	rest, err := bestFitDecreasing(unpinned, cs)
	if err != nil {
		return nil, err
	}
	placements = append(placements, rest...)
	return placements, nil
}
