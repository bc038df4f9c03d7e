package config

import "testing"

const twoNodeYAML = `
nodes:
  - node_id: node-a
    cpus: [0, 1, 2, 3]
    max_utilisation: 0.9
    max_memory_mb: 16384
    tags:
      zone: rack-1
  - node_id: node-b
    cpus: [0, 1]
`

func TestParseDefaults(t *testing.T) {
	mgr, err := Parse([]byte(twoNodeYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if mgr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", mgr.Len())
	}
	b, ok := mgr.Get("node-b")
	if !ok {
		t.Fatalf("node-b not found")
	}
	if b.MaxUtilisation != DefaultMaxUtilisation {
		t.Errorf("node-b MaxUtilisation = %v, want default %v", b.MaxUtilisation, DefaultMaxUtilisation)
	}
	if b.MaxMemoryMB != UnconstrainedMemoryMB {
		t.Errorf("node-b MaxMemoryMB = %v, want unconstrained", b.MaxMemoryMB)
	}
	ids := mgr.IDs()
	if len(ids) != 2 || ids[0] != "node-a" || ids[1] != "node-b" {
		t.Errorf("IDs() = %v, want sorted [node-a node-b]", ids)
	}
}

func TestParseDuplicateNodeID(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  - node_id: dup
    cpus: [0]
  - node_id: dup
    cpus: [1]
`))
	if err == nil {
		t.Fatalf("expected error for duplicate node_id")
	}
}

func TestParseEmptyCPUs(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  - node_id: node-a
    cpus: []
`))
	if err == nil {
		t.Fatalf("expected error for empty cpu set")
	}
}
