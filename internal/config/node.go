// Package config defines the immutable per-node capacity model and the
// YAML loader that populates it from an operator-supplied node config
// file, kept separate from the scheduling core itself.
package config

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultMaxUtilisation is the per-CPU ceiling applied when a node
// entry omits max_utilisation.
const DefaultMaxUtilisation = 0.90

// UnconstrainedMemoryMB is the sentinel max_memory_mb value meaning no
// memory ceiling is enforced for a node.
const UnconstrainedMemoryMB = math.MaxUint64

// Node is the immutable per-node capacity description.
type Node struct {
	NodeID         string
	CPUs           []int // ordered ascending, deduplicated
	MaxUtilisation float64
	MaxMemoryMB    uint64
	Tags           map[string]string
}

// HasCPU reports whether cpu belongs to this node's CPU set.
func (n Node) HasCPU(cpu int) bool {
	for _, c := range n.CPUs {
		if c == cpu {
			return true
		}
	}
	return false
}

// Manager is an immutable mapping of node_id to Node, ordered by node
// id. Safe for concurrent read access by any number of callers once
// constructed; it is never mutated after NewManager or Load returns.
type Manager struct {
	order []string
	byID  map[string]Node
}

// NewManager builds a Manager from a slice of nodes, sorting by
// node id and rejecting duplicates.
func NewManager(nodes []Node) (*Manager, error) {
	byID := make(map[string]Node, len(nodes))
	order := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.NodeID == "" {
			return nil, fmt.Errorf("config: node entry with empty node_id")
		}
		if _, exists := byID[n.NodeID]; exists {
			return nil, fmt.Errorf("config: duplicate node_id %q", n.NodeID)
		}
		if len(n.CPUs) == 0 {
			return nil, fmt.Errorf("config: node %q has an empty cpu set", n.NodeID)
		}
		if n.MaxUtilisation <= 0 {
			return nil, fmt.Errorf("config: node %q has a non-positive max_utilisation", n.NodeID)
		}
		cpus := append([]int(nil), n.CPUs...)
		sort.Ints(cpus)
		n.CPUs = cpus
		byID[n.NodeID] = n
		order = append(order, n.NodeID)
	}
	sort.Strings(order)
	return &Manager{order: order, byID: byID}, nil
}

// Get returns the node config for id and whether it was found.
func (m *Manager) Get(id string) (Node, bool) {
	n, ok := m.byID[id]
	return n, ok
}

// IDs returns node ids in ascending sorted order.
func (m *Manager) IDs() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of configured nodes.
func (m *Manager) Len() int { return len(m.order) }

// --- YAML loading -----------------------------------------------------

type fileFormat struct {
	Nodes []nodeYAML `yaml:"nodes"`
}

type nodeYAML struct {
	NodeID         string            `yaml:"node_id"`
	CPUs           []int             `yaml:"cpus"`
	MaxUtilisation *float64          `yaml:"max_utilisation"`
	MaxMemoryMB    *uint64           `yaml:"max_memory_mb"`
	Tags           map[string]string `yaml:"tags"`
}

// Load reads a node-config YAML file from disk and builds an immutable
// Manager. Omitted max_utilisation defaults to DefaultMaxUtilisation;
// omitted max_memory_mb defaults to UnconstrainedMemoryMB.
func Load(path string) (*Manager, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds an immutable Manager from raw YAML bytes.
func Parse(raw []byte) (*Manager, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parsing node config yaml: %w", err)
	}
	nodes := make([]Node, 0, len(f.Nodes))
	for _, ny := range f.Nodes {
		n := Node{
			NodeID:         ny.NodeID,
			CPUs:           ny.CPUs,
			MaxUtilisation: DefaultMaxUtilisation,
			MaxMemoryMB:    UnconstrainedMemoryMB,
			Tags:           ny.Tags,
		}
		if ny.MaxUtilisation != nil {
			n.MaxUtilisation = *ny.MaxUtilisation
		}
		if ny.MaxMemoryMB != nil {
			n.MaxMemoryMB = *ny.MaxMemoryMB
		}
		nodes = append(nodes, n)
	}
	mgr, err := NewManager(nodes)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return mgr, nil
}
