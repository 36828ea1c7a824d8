// Package routing scores neighbor candidates by capacity and liquidity
// reachability and selects the best next hop for a packet (spec.md §4.D).
package routing

import (
	"errors"
	"math"
	"sort"

	"valuemesh/meshtypes"
)

// ErrNoCandidates is returned when a node has no eligible (non-disabled)
// neighbors, or no liquid egress exists anywhere in the mesh.
var ErrNoCandidates = errors.New("routing: no eligible route")

// NodeLookup resolves a NodeId to its Node, the minimal view the router
// needs of the mesh topology.
type NodeLookup interface {
	Node(id meshtypes.NodeId) (*meshtypes.Node, bool)
}

// OperatorPreferences holds a per-node tier weighting table; optional.
type OperatorPreferences map[meshtypes.NodeId]TierWeights

type TierWeights map[meshtypes.MarketTier]float64

// Router selects the best next hop for an in-flight packet.
type Router struct {
	Preferences OperatorPreferences
}

func NewRouter() *Router {
	return &Router{Preferences: make(OperatorPreferences)}
}

// capacityScore implements spec.md §4.D's capacity-only scoring:
// 0.35*bw_norm + 0.25*buf_free_norm - 0.25*latency_norm - 0.15*load_norm
func capacityScore(bwNorm, bufFreeNorm, latencyNorm, loadNorm float64) float64 {
	return 0.35*bwNorm + 0.25*bufFreeNorm - 0.25*latencyNorm - 0.15*loadNorm
}

// normalize maps v into [0,1] against the observed max across candidates;
// a zero max normalizes everything to 0.
func normalize(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	r := v / max
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

func euclidean(ax, ay, bx, by float64) float64 {
	dx, dy := ax-bx, ay-by
	return math.Sqrt(dx*dx + dy*dy)
}

// SelectNextHop chooses the best neighbor of `from` for `packet`, excluding
// Disabled nodes, per the combined scoring formula in spec.md §4.D.
func (r *Router) SelectNextHop(lookup NodeLookup, from *meshtypes.Node, packet *meshtypes.Packet, allNodes map[meshtypes.NodeId]*meshtypes.Node) (meshtypes.NodeId, error) {
	neighborIds := make([]meshtypes.NodeId, 0, len(from.Neighbors))
	for nid := range from.Neighbors {
		neighborIds = append(neighborIds, nid)
	}
	sort.Slice(neighborIds, func(i, j int) bool { return neighborIds[i] < neighborIds[j] })

	candidates := make([]*meshtypes.Node, 0, len(neighborIds))
	for _, nid := range neighborIds {
		n, ok := lookup.Node(nid)
		if !ok || n.Role == meshtypes.RoleDisabled {
			continue
		}
		candidates = append(candidates, n)
	}
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}

	// Find liquid egress set for distance normalization.
	liquidEgresses := make([]*meshtypes.Node, 0)
	for _, n := range allNodes {
		if n.IsLiquidEgress() {
			liquidEgresses = append(liquidEgresses, n)
		}
	}
	if len(liquidEgresses) == 0 {
		return "", ErrNoCandidates
	}

	nearestEgressDist := func(n *meshtypes.Node) float64 {
		best := math.Inf(1)
		for _, e := range liquidEgresses {
			d := euclidean(n.X, n.Y, e.X, e.Y)
			if d < best {
				best = d
			}
		}
		return best
	}

	var maxBW, maxBufFree, maxLatency, maxLoad, maxDist float64
	dists := make(map[meshtypes.NodeId]float64, len(candidates))
	for _, c := range candidates {
		bufFree := c.Bandwidth - float64(c.CurrentBufferCount)
		if bufFree < 0 {
			bufFree = 0
		}
		if c.Bandwidth > maxBW {
			maxBW = c.Bandwidth
		}
		if bufFree > maxBufFree {
			maxBufFree = bufFree
		}
		if c.Latency > maxLatency {
			maxLatency = c.Latency
		}
		load := float64(c.CurrentBufferCount)
		if load > maxLoad {
			maxLoad = load
		}
		d := nearestEgressDist(c)
		dists[c.ID] = d
		if d > maxDist {
			maxDist = d
		}
	}

	var best *meshtypes.Node
	bestScore := math.Inf(-1)

	for _, c := range candidates {
		bwNorm := normalize(c.Bandwidth, maxBW)
		bufFree := c.Bandwidth - float64(c.CurrentBufferCount)
		if bufFree < 0 {
			bufFree = 0
		}
		bufFreeNorm := normalize(bufFree, maxBufFree)
		latencyNorm := normalize(c.Latency, maxLatency)
		loadNorm := normalize(float64(c.CurrentBufferCount), maxLoad)
		capScore := capacityScore(bwNorm, bufFreeNorm, latencyNorm, loadNorm)

		distNorm := normalize(dists[c.ID], maxDist)

		tierMatch := 0.0
		if c.TierPreference != nil && *c.TierPreference == packet.Tier {
			tierMatch = 1.0
		}

		total := capScore - 0.20*distNorm + 0.05*c.Uptime - 0.10*c.TransitFee + 0.05*tierMatch

		if weights, ok := r.Preferences[c.ID]; ok {
			if w, ok := weights[packet.Tier]; ok {
				total *= w
			}
			if !c.AutoMode {
				if packet.OriginalValue.LessThan(c.PreferredMin) || packet.OriginalValue.GreaterThan(c.PreferredMax) {
					total *= 0.5
				}
			}
		}

		if total > bestScore {
			bestScore = total
			best = c
		}
	}

	if best == nil {
		return "", ErrNoCandidates
	}
	return best.ID, nil
}
