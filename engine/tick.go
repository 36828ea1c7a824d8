package engine

import (
	"valuemesh/governor"
	"valuemesh/meshtypes"
)

// Tick advances the entire world exactly one step and returns a snapshot
// (spec.md §6 `tick() -> TickResult`). Fixed order within a tick:
// delivery -> volatility/lambda update -> Governor -> NGauge -> traffic
// spawn -> per-node execution -> per-node pressure -> finalize
// (spec.md §5).
func (e *Engine) Tick() TickResult {
	e.tick++
	// Captured before the reset below: the prior tick's settlement+spawn
	// activity is what NGauge samples here, since this tick's own spawn
	// and per-node execution haven't run yet at this point in the fixed
	// ordering (spec.md §5: Governor -> NGauge precedes traffic spawn ->
	// per-node execution).
	prevActivity := float64(e.counts.Settlement + e.counts.Spawn)
	e.counts = Counts{}

	e.deliverMatured()

	e.updateVolatility()

	metrics := e.buildNetworkMetrics()
	e.lastParams = e.gov.Evaluate(metrics)

	e.ngaugeTracker.Sample(prevActivity, metrics.NetworkVelocity)

	e.spawnTraffic()

	for _, id := range e.nodeOrder {
		e.processNode(e.nodes[id])
	}

	e.updateNodePressure()

	return e.finalize(metrics)
}

// updateVolatility derives a [0,1] volatility signal from the recent
// gold-price return series; spec.md §4.E takes volatility as a given
// NetworkMetrics input but the engine surface (spec.md §6) exposes no
// external volatility setter, so it must be derived internally. See
// DESIGN.md.
func (e *Engine) updateVolatility() {
	if e.prevGoldPrice != 0 {
		ret := (e.goldPrice - e.prevGoldPrice) / e.prevGoldPrice
		e.priceWindow.push(ret)
	}
	e.prevGoldPrice = e.goldPrice

	sigma := e.priceWindow.stddev()
	v := sigma * 10
	if v > 1 {
		v = 1
	}
	if v < 0 {
		v = 0
	}
	e.volatility = v
}

func (e *Engine) buildNetworkMetrics() governor.NetworkMetrics {
	liquidity := meshtypes.Zero
	for _, id := range e.nodeOrder {
		n := e.nodes[id]
		if n.Role == meshtypes.RoleEgress {
			liquidity = liquidity.Add(n.InventoryCrypto)
		}
	}

	active := e.activeValue()
	inTransitTotal := meshtypes.Zero
	for _, entry := range e.inTransit {
		inTransitTotal = inTransitTotal.Add(entry.packet.CurrentValue)
	}

	turnover := e.totals.Output.Add(e.totals.FeesCollected)
	velocity := 0.0
	if av := active.Float64(); av > 0 {
		velocity = turnover.Float64() / av
	}

	tierCounts := make(map[meshtypes.MarketTier]int64, len(meshtypes.AllTiers))
	for t, c := range e.tierDistribution() {
		tierCounts[t] = c
	}

	return governor.NetworkMetrics{
		CurrentGoldPrice:  e.goldPrice,
		TargetGoldPrice:   e.targetGoldPrice,
		Volatility:        e.volatility,
		TransactionVolume: e.volumeWindow.sum(),
		LiquidityDepth:    liquidity.Float64(),
		NetworkVelocity:   velocity,
		TierActiveCounts:  tierCounts,
		InTransitFloat:    inTransitTotal.Float64(),
		PanicLevel:        e.panicLevel,
		OrganicRatio:      e.ngaugeTracker.OrganicRatio(),
		Speculative:       e.ngaugeTracker.IsSpeculative(),
	}
}

func (e *Engine) spawnTraffic() {
	currentFeeRate := 0.0
	if r, ok := e.lastParams.TierFeeRate[meshtypes.TierL0]; ok {
		currentFeeRate = r
	}

	spawns := e.trafficGen.GenerateSpawns(e.demandFactor, e.nodeCount, currentFeeRate)
	ingress := e.ingressNodeIds()
	if len(ingress) == 0 {
		return
	}

	var spawnedValue float64
	for _, s := range spawns {
		idx := e.trafficGen.IngressIndex(len(ingress))
		e.SpawnPacket(ingress[idx], s.Value)
		e.counts.Spawn++
		spawnedValue += s.Value.Float64()
	}
	e.volumeWindow.push(spawnedValue)
}

// updateNodePressure is the per-node-pressure pass in spec.md §5's
// ordering guarantee: buffer occupancy is already current after
// processNode's drain/re-push, so this just keeps the router's load
// signal in sync for neighbors observing this node next tick.
func (e *Engine) updateNodePressure() {
	for _, id := range e.nodeOrder {
		n := e.nodes[id]
		n.CurrentBufferCount = len(n.Buffer)
	}
}

func (e *Engine) finalize(metrics governor.NetworkMetrics) TickResult {
	active := e.activeValue()

	result, err := e.law.VerifyTick(e.totals.Input, e.totals.Output, e.totals.FeesCollected, e.totals.DemurrageBurned, active)
	if err != nil || result.BreakerTripped {
		e.circuitBreakerActive = true
		logger.Printf("conservation breaker tripped at tick %d: error=%s", e.tick, result.Error)
	}

	currentFeeRate := e.lastParams.TierFeeRate[meshtypes.TierL0]

	feeComponent := e.goldPrice * currentFeeRate
	demurrageComponent := e.goldPrice * e.lastParams.Demurrage
	composite := e.goldPrice - feeComponent - demurrageComponent

	pegDeviation := 0.0
	if e.targetGoldPrice != 0 {
		pegDeviation = (e.goldPrice - e.targetGoldPrice) / e.targetGoldPrice
	}

	status := "normal"
	if e.circuitBreakerActive {
		status = "circuit_breaker_tripped"
	}

	return TickResult{
		Tick:               e.tick,
		GoldPrice:          e.goldPrice,
		PegDeviation:        pegDeviation,
		NetworkVelocity:    metrics.NetworkVelocity,
		CurrentFeeRate:     currentFeeRate,
		TierFeeRates:       e.lastParams.TierFeeRate,
		DemurrageRate:      e.lastParams.Demurrage,
		GovernanceQuadrant: e.lastParams.Quadrant.String(),
		GovernanceStatus:   status,
		Totals:             e.totals,
		ActiveValue:        active,
		Counts:             e.counts,
		TierDistribution:   e.tierDistribution(),
		Volatility:         e.volatility,
		SurgeMultiplier:    e.lastParams.SurgeMultiplier,
		NGaugeActivityIdx:  e.ngaugeTracker.OrganicRatio(),
		CircuitBreakerActive: e.circuitBreakerActive,
		EffectivePriceComposite: EffectivePriceComposite{
			Spot:               e.goldPrice,
			FeeComponent:       feeComponent,
			DemurrageComponent: demurrageComponent,
			Composite:          composite,
		},
	}
}
