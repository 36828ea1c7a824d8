package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"valuemesh/dissolution"
	"valuemesh/governor"
	"valuemesh/meshtypes"
)

// processNode drains one node's buffer and runs each packet through the
// per-tick lifecycle pipeline in spec.md §4.H, in FIFO order. Packets
// that survive the tick are re-pushed onto the (now empty) buffer or
// onto the global in-transit queue; terminal packets are dropped.
func (e *Engine) processNode(node *meshtypes.Node) {
	packets := node.DrainBuffer()
	for _, p := range packets {
		e.processPacket(node, p)
	}
}

func (e *Engine) processPacket(node *meshtypes.Node, p *meshtypes.Packet) {
	now := e.tick

	// 1. Per-packet demurrage.
	lambda := e.effectiveLambda(p.Tier)
	burned := p.ApplyDemurrage(lambda)
	e.totals.DemurrageBurned = e.totals.DemurrageBurned.Add(burned)

	// 2. Surge burn (Held packets only).
	if p.Status == meshtypes.StateHeld {
		orbitTicks := p.OrbitTicks(now)
		if orbitTicks > 10 {
			frac := math.Min(0.01*float64(orbitTicks-10), 0.5)
			extra := p.CurrentValue.MulFloat(frac)
			p.CurrentValue = p.CurrentValue.Sub(extra)
			e.totals.DemurrageBurned = e.totals.DemurrageBurned.Add(extra)
		}
	}

	// 3. TTL check.
	if p.TTL > 0 && now >= p.TTL {
		p.Status = meshtypes.StateExpired
		e.totals.Output = e.totals.Output.Add(p.CurrentValue)
		e.counts.Revert++
		p.Status = meshtypes.StateRefunded
		return
	}

	// 4. Dissolution check (Held only, age >= threshold).
	if p.Status == meshtypes.StateHeld && dissolution.IsEligible(p.Age(now)) {
		if e.tryDissolve(p) {
			return
		}
	}

	// 5. Orbit timeout (Held only).
	if p.Status == meshtypes.StateHeld {
		if p.OrbitTicks(now) > p.Tier.OrbitTimeoutTicks() {
			p.Status = meshtypes.StateRefunded
			e.totals.Output = e.totals.Output.Add(p.CurrentValue)
			e.counts.Revert++
			return
		}
	}

	// 6. Strategy filter.
	if node.Strategy == meshtypes.StrategyRiskAverse && e.volatility > 0.10 && node.Role != meshtypes.RoleEgress {
		node.PushBuffer(p)
		return
	}

	// 7. Settlement (egress role).
	if node.Role == meshtypes.RoleEgress {
		if node.InventoryCrypto.GreaterThanOrEqual(p.CurrentValue) {
			e.settlePacket(node, p)
			return
		}
		// Insufficient liquidity: retry next tick from the egress buffer.
		node.PushBuffer(p)
		return
	}

	// 8. Hop limit.
	if p.Hops > p.HopLimit {
		p.EnterHeld(now)
		node.PushBuffer(p)
		e.counts.Held++
		e.counts.Orbit++
		return
	}

	// 9. Route.
	nextHop, err := e.router.SelectNextHop(e, node, p, e.nodes)
	if err == nil {
		e.routeHop(node, nextHop, p)
		return
	}

	// 10. No route.
	p.EnterHeld(now)
	node.PushBuffer(p)
	e.counts.Held++
	e.counts.Orbit++
}

// effectiveLambda scales the tier's static per-tick demurrage lambda by
// the Governor's quadrant demurrage override (quadrant_demurrage /
// BASE_DEMURRAGE): the override in spec.md §4.E otherwise has no per-
// packet consumer. See DESIGN.md.
func (e *Engine) effectiveLambda(tier meshtypes.MarketTier) decimal.Decimal {
	base := tier.DemurrageLambda()
	if e.lastParams.Demurrage < 0 {
		return base
	}
	scale := e.lastParams.Demurrage / governor.BaseDemurrage
	return base.Mul(decimal.NewFromFloat(scale))
}

func (e *Engine) tryDissolve(p *meshtypes.Packet) bool {
	qualified := e.qualifiedNodesSorted()
	shardHolders := routeHistorySet(p.RouteHistory)
	recipients, err := dissolution.Distribute(p.CurrentValue, qualified, shardHolders)
	if err != nil {
		return false
	}
	for _, r := range recipients {
		if n, ok := e.nodes[r.Node]; ok {
			n.InventoryFiat = n.InventoryFiat.Add(r.Share)
		}
	}
	e.totals.Output = e.totals.Output.Add(p.CurrentValue)
	p.Status = meshtypes.StateDissolved
	e.counts.Dissolved++
	return true
}

// routeHop charges the departing node's transit fee, advances the packet
// to the next hop, and moves it onto the global in-transit queue
// (spec.md §4.H step 9).
func (e *Engine) routeHop(node *meshtypes.Node, next meshtypes.NodeId, p *meshtypes.Packet) {
	nextNode := e.nodes[next]

	fee := meshtypes.Min(
		meshtypes.Min(p.CurrentValue.MulFloat(nextNode.TransitFee), p.CurrentValue.Mul(p.Tier.FeeCap())),
		p.RemainingBudget(),
	)
	p.CurrentValue = p.CurrentValue.Sub(fee)
	p.FeesConsumed = p.FeesConsumed.Add(fee)
	e.totals.FeesCollected = e.totals.FeesCollected.Add(fee)
	nextNode.TotalFeesEarned = nextNode.TotalFeesEarned.Add(fee)

	p.Status = meshtypes.StateInTransit
	p.TargetNode = &next
	p.Hops++
	p.RouteHistory = append(p.RouteHistory, next)
	p.ClearOrbit()

	dist := euclideanNodes(node, nextNode)
	verificationComplexity := int64(p.Tier) + 1
	latency := int64(1) + int64(math.Sqrt(dist)) + verificationComplexity
	p.ArrivalTick = e.tick + latency

	e.inTransit = append(e.inTransit, &inTransitEntry{packet: p, from: node.ID})
}

func euclideanNodes(a, b *meshtypes.Node) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
