package engine

import (
	"valuemesh/feesplit"
	"valuemesh/governor"
	"valuemesh/meshtypes"
)

// settlePacket executes spec.md §4.H step 7: compute the Governor fee,
// apply the node's strategy modifier, distribute it 80/20 egress/transit
// with the hop-based velocity bonus, and debit the egress node's crypto
// inventory by the packet's current value.
func (e *Engine) settlePacket(node *meshtypes.Node, p *meshtypes.Packet) {
	rate := e.lastParams.TierFeeRate[p.Tier]
	totalFee := governor.EffectiveFee(p.Tier, rate, p.OriginalValue)
	totalFee = meshtypes.Min(totalFee, p.CurrentValue)

	if node.Strategy == meshtypes.StrategyGreedy {
		totalFee = totalFee.MulFloat(1.5)
	}

	cappedFee := meshtypes.Min(totalFee, p.RemainingBudget())
	cappedFee = meshtypes.Min(cappedFee, p.CurrentValue)

	velocityBonus := velocityBonusFor(p.Hops)
	payoutMultiplier := velocityBonus * e.lastParams.SurgeMultiplier

	if !cappedFee.IsZero() {
		transitHops := transitHopsFrom(p, node.ID)
		dist, err := e.feeDistributor.Distribute(cappedFee, node.ID, transitHops)
		if err == nil {
			egressPay := dist.Egress.MulFloat(payoutMultiplier)
			node.TotalFeesEarned = node.TotalFeesEarned.Add(egressPay)
			e.totals.RewardsEgress = e.totals.RewardsEgress.Add(egressPay)
			for _, tp := range dist.Transits {
				if n, ok := e.nodes[tp.Node]; ok {
					pay := tp.Payment.MulFloat(payoutMultiplier)
					n.TotalFeesEarned = n.TotalFeesEarned.Add(pay)
					e.totals.RewardsTransit = e.totals.RewardsTransit.Add(pay)
				}
			}
		}
	}

	settlementValue := meshtypes.MaxZero(p.CurrentValue.Sub(cappedFee))

	node.InventoryCrypto = node.InventoryCrypto.Sub(p.CurrentValue)
	e.totals.Output = e.totals.Output.Add(settlementValue)
	e.totals.FeesCollected = e.totals.FeesCollected.Add(cappedFee)
	p.FeesConsumed = p.FeesConsumed.Add(cappedFee)

	if _, err := e.law.VerifySettlement(p.CurrentValue, settlementValue, cappedFee, meshtypes.Zero); err != nil {
		e.circuitBreakerActive = true
	}

	p.Status = meshtypes.StateSettled
	p.CurrentValue = meshtypes.Zero
	e.counts.Settlement++
}

// velocityBonusFor implements the hop-based payout multiplier (spec.md
// §4.H step 7): 1.2 for <=3 hops, 1.0 for <=6, 0.8 otherwise.
func velocityBonusFor(hops int) float64 {
	switch {
	case hops <= 3:
		return 1.2
	case hops <= 6:
		return 1.0
	default:
		return 0.8
	}
}

// transitHopsFrom builds the transit-fee-pool weighting list from a
// packet's route history, excluding the origin and the settling egress
// node itself. Per-hop byte weights aren't tracked by this simulation, so
// the distributor falls back to an equal split among transit hops
// (spec.md §4.C).
func transitHopsFrom(p *meshtypes.Packet, egress meshtypes.NodeId) []feesplit.TransitHop {
	if len(p.RouteHistory) <= 2 {
		return nil
	}
	transitNodes := p.RouteHistory[1 : len(p.RouteHistory)-1]
	hops := make([]feesplit.TransitHop, 0, len(transitNodes))
	for _, n := range transitNodes {
		if n == egress {
			continue
		}
		hops = append(hops, feesplit.TransitHop{Node: n, Bytes: 0})
	}
	return hops
}
