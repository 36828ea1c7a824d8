package routing

import (
	"testing"

	"valuemesh/meshtypes"
)

type fakeLookup struct {
	nodes map[meshtypes.NodeId]*meshtypes.Node
}

func (f fakeLookup) Node(id meshtypes.NodeId) (*meshtypes.Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

func buildMesh() (fakeLookup, *meshtypes.Node) {
	egress := meshtypes.NewNode("egress", meshtypes.RoleEgress, 10, 0)
	egress.InventoryCrypto = meshtypes.GoldGramsFromFloat(500)

	fast := meshtypes.NewNode("fast", meshtypes.RoleTransit, 5, 0)
	fast.Bandwidth = 100
	fast.Latency = 1
	fast.Uptime = 1.0

	slow := meshtypes.NewNode("slow", meshtypes.RoleTransit, 5, 5)
	slow.Bandwidth = 10
	slow.Latency = 50
	slow.Uptime = 0.5

	from := meshtypes.NewNode("origin", meshtypes.RoleIngress, 0, 0)
	from.Neighbors["fast"] = struct{}{}
	from.Neighbors["slow"] = struct{}{}

	nodes := map[meshtypes.NodeId]*meshtypes.Node{
		"egress": egress,
		"fast":   fast,
		"slow":   slow,
		"origin": from,
	}
	return fakeLookup{nodes: nodes}, from
}

func TestSelectNextHopPrefersHigherCapacity(t *testing.T) {
	lookup, from := buildMesh()
	r := NewRouter()
	p := &meshtypes.Packet{Tier: meshtypes.TierL0, OriginalValue: meshtypes.GoldGramsFromFloat(5)}

	next, err := r.SelectNextHop(lookup, from, p, lookup.nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != "fast" {
		t.Errorf("expected the higher-bandwidth, lower-latency neighbor to win, got %s", next)
	}
}

func TestSelectNextHopNoLiquidEgressFails(t *testing.T) {
	lookup, from := buildMesh()
	lookup.nodes["egress"].InventoryCrypto = meshtypes.Zero

	r := NewRouter()
	p := &meshtypes.Packet{Tier: meshtypes.TierL0, OriginalValue: meshtypes.GoldGramsFromFloat(5)}
	_, err := r.SelectNextHop(lookup, from, p, lookup.nodes)
	if err != ErrNoCandidates {
		t.Errorf("expected ErrNoCandidates with no liquid egress, got %v", err)
	}
}

func TestSelectNextHopExcludesDisabledNeighbors(t *testing.T) {
	lookup, from := buildMesh()
	lookup.nodes["fast"].Role = meshtypes.RoleDisabled

	r := NewRouter()
	p := &meshtypes.Packet{Tier: meshtypes.TierL0, OriginalValue: meshtypes.GoldGramsFromFloat(5)}
	next, err := r.SelectNextHop(lookup, from, p, lookup.nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next == "fast" {
		t.Error("a disabled neighbor must never be selected")
	}
}

func TestSelectNextHopNoNeighborsFails(t *testing.T) {
	lookup, from := buildMesh()
	from.Neighbors = map[meshtypes.NodeId]struct{}{}

	r := NewRouter()
	p := &meshtypes.Packet{Tier: meshtypes.TierL0, OriginalValue: meshtypes.GoldGramsFromFloat(5)}
	_, err := r.SelectNextHop(lookup, from, p, lookup.nodes)
	if err != ErrNoCandidates {
		t.Errorf("expected ErrNoCandidates with no neighbors, got %v", err)
	}
}
