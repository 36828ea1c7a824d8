package engine

import "valuemesh/meshtypes"

// Totals are the engine's monotonic cumulative counters (spec.md §3
// WorldState, §6 TickResult).
type Totals struct {
	Input           meshtypes.GoldGrams
	Output          meshtypes.GoldGrams
	FeesCollected   meshtypes.GoldGrams
	DemurrageBurned meshtypes.GoldGrams
	RewardsEgress   meshtypes.GoldGrams
	RewardsTransit  meshtypes.GoldGrams
}

// Counts are per-tick event counters (spec.md §6).
type Counts struct {
	Settlement int
	Revert     int
	Orbit      int
	Dissolved  int
	Held       int
	Spawn      int
}

// EffectivePriceComposite breaks the effective exchange rate into its
// three components (spec.md §5 supplemented feature, from
// original_source/arena-sim's report/governor modules): spot price, the
// drag fee extraction imposes, and the drag demurrage imposes.
type EffectivePriceComposite struct {
	Spot               float64
	FeeComponent       float64
	DemurrageComponent float64
	Composite          float64
}

// TickResult is the snapshot returned by every tick() call (spec.md §6).
type TickResult struct {
	Tick int64

	GoldPrice       float64
	PegDeviation    float64
	NetworkVelocity float64

	CurrentFeeRate float64
	TierFeeRates   map[meshtypes.MarketTier]float64
	DemurrageRate  float64

	GovernanceQuadrant string
	GovernanceStatus   string

	Totals      Totals
	ActiveValue meshtypes.GoldGrams

	Counts Counts

	TierDistribution map[meshtypes.MarketTier]int64

	Volatility        float64
	SurgeMultiplier   float64
	NGaugeActivityIdx float64

	CircuitBreakerActive bool

	EffectivePriceComposite EffectivePriceComposite
}
