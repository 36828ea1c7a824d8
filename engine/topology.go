package engine

import (
	"math"

	"valuemesh/meshtypes"
)

// buildTopology deterministically lays out nodeCount nodes on a square
// grid and wires each to its grid neighbors (plus wraparound on a ring of
// fallback links so the mesh stays connected even after a kill_node).
// Roughly 1 in 6 nodes is an egress, 1 in 6 is ingress, one is the
// NGauge oracle, and the rest are transit — matching the role mix the
// scenarios in spec.md §8 (4-node and 24-node topologies) assume.
func buildTopology(nodeCount int) map[meshtypes.NodeId]*meshtypes.Node {
	nodes := make(map[meshtypes.NodeId]*meshtypes.Node, nodeCount)

	side := int(math.Ceil(math.Sqrt(float64(nodeCount))))

	ids := make([]meshtypes.NodeId, nodeCount)
	for i := 0; i < nodeCount; i++ {
		ids[i] = meshtypes.NodeIdForIndex(i)
		x := float64(i % side)
		y := float64(i / side)

		role := meshtypes.RoleTransit
		switch {
		case i == 0:
			role = meshtypes.RoleIngress
		case nodeCount > 1 && i == nodeCount-1:
			role = meshtypes.RoleEgress
		case nodeCount > 3 && i == 1:
			role = meshtypes.RoleNGauge
		case i%6 == 0:
			role = meshtypes.RoleIngress
		case i%6 == 3:
			role = meshtypes.RoleEgress
		}

		n := meshtypes.NewNode(ids[i], role, x, y)
		n.Bandwidth = 100 + float64(i%10)*10
		n.Latency = 1 + float64(i%5)
		n.TransitFee = 0.001 + float64(i%4)*0.0005
		n.Uptime = 0.95 + 0.01*float64(i%5)
		n.UPIActive = true
		n.NGaugeActive = true
		n.KYCValid = true
		n.CaesarActive = true
		n.DemonstrableCapacity = true
		n.RoutedTrafficEpoch = true

		if role == meshtypes.RoleEgress {
			n.InventoryCrypto = meshtypes.NewGoldGrams(0, 0)
		}

		nodes[ids[i]] = n
	}

	for i := 0; i < nodeCount; i++ {
		n := nodes[ids[i]]
		x, y := i%side, i/side

		neighborOffsets := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
		for _, off := range neighborOffsets {
			nx, ny := x+off[0], y+off[1]
			if nx < 0 || ny < 0 || nx >= side {
				continue
			}
			nidx := ny*side + nx
			if nidx < 0 || nidx >= nodeCount || nidx == i {
				continue
			}
			n.Neighbors[ids[nidx]] = struct{}{}
		}

		// Ring wraparound keeps the mesh connected for small node counts
		// and survives a single kill_node without fragmenting.
		next := (i + 1) % nodeCount
		prev := (i - 1 + nodeCount) % nodeCount
		if next != i {
			n.Neighbors[ids[next]] = struct{}{}
		}
		if prev != i {
			n.Neighbors[ids[prev]] = struct{}{}
		}
	}

	return nodes
}

// orderedNodeIds returns node IDs in sorted insertion order, the fixed
// iteration order spec.md §5 requires for determinism.
func orderedNodeIds(nodes map[meshtypes.NodeId]*meshtypes.Node, order []meshtypes.NodeId) []meshtypes.NodeId {
	out := make([]meshtypes.NodeId, 0, len(order))
	for _, id := range order {
		if _, ok := nodes[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
