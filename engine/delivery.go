package engine

import (
	"sort"

	"valuemesh/meshtypes"
)

// deliverMatured moves every in-transit packet whose arrival_tick has
// passed into its target node's buffer, rerouting around a target that
// has since been disabled (spec.md §4.H "Delivery").
func (e *Engine) deliverMatured() {
	remaining := e.inTransit[:0]
	for _, entry := range e.inTransit {
		p := entry.packet
		if p.ArrivalTick > e.tick {
			remaining = append(remaining, entry)
			continue
		}

		target := *p.TargetNode
		targetNode, ok := e.nodes[target]

		if !ok || targetNode.Role == meshtypes.RoleDisabled {
			reroute, found := e.firstEnabledNeighbor(target)
			if found {
				p.TargetNode = &reroute
				p.Status = meshtypes.StateMinted
				e.nodes[reroute].PushBuffer(p)
				continue
			}
			// No reachable neighbor: fall back to orbit at the sending node.
			p.EnterHeld(e.tick)
			e.nodes[entry.from].PushBuffer(p)
			e.counts.Held++
			e.counts.Orbit++
			continue
		}

		p.Status = meshtypes.StateMinted
		targetNode.PushBuffer(p)
	}
	e.inTransit = remaining
}

// firstEnabledNeighbor returns the lowest-ID non-disabled neighbor of
// node `of`, for deterministic rerouting around a disabled target.
func (e *Engine) firstEnabledNeighbor(of meshtypes.NodeId) (meshtypes.NodeId, bool) {
	n, ok := e.nodes[of]
	if !ok {
		return "", false
	}
	ids := make([]meshtypes.NodeId, 0, len(n.Neighbors))
	for id := range n.Neighbors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if cand, ok := e.nodes[id]; ok && cand.Role != meshtypes.RoleDisabled {
			return id, true
		}
	}
	return "", false
}
