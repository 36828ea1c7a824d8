package governor

import (
	"math"

	"valuemesh/meshtypes"
)

// Core is the PID controller (spec.md §4.E). Its state and arithmetic are
// float64, like the host-float metrics the Governor consumes. All of the
// PID's own bookkeeping (integral, previous error) lives here so the
// legacy chain in legacy.go never mutates it.
type Core struct {
	integral    float64
	prevError   float64
	initialized bool
}

func NewCore() *Core {
	return &Core{}
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func positivePart(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// errorSignal computes e = (current - target) / target, or 0 if target is 0.
func errorSignal(m NetworkMetrics) float64 {
	if m.TargetGoldPrice == 0 {
		return 0
	}
	return (m.CurrentGoldPrice - m.TargetGoldPrice) / m.TargetGoldPrice
}

// healthScore computes H in [0,10] from the four weighted components
// (spec.md §4.E).
func healthScore(e float64, m NetworkMetrics) float64 {
	priceTerm := 0.4 * positivePart(1-math.Abs(e)) * 10
	volTerm := 0.3 * positivePart(1-m.Volatility) * 10
	volumeTerm := 0.2 * math.Min(m.TransactionVolume/1e6, 10)
	liquidityTerm := 0.1 * math.Min(m.LiquidityDepth/1e5, 10)
	return priceTerm + volTerm + volumeTerm + liquidityTerm
}

// baseAdjustment brackets health score into a base fee adjustment
// (spec.md §4.E).
func baseAdjustment(h float64) float64 {
	switch {
	case h >= 8.5:
		return -0.008
	case h >= 7.5:
		return -0.006
	case h >= 6.5:
		return -0.004
	case h >= 5.5:
		return -0.002
	case h >= 5.0:
		return 0
	case h >= 4.0:
		return 0.002
	default:
		return 0.005
	}
}

// ClassifyQuadrant classifies the pressure quadrant from the same metrics
// (spec.md §4.E table).
func ClassifyQuadrant(e float64, m NetworkMetrics) Quadrant {
	switch {
	case e > DeviationEmergency && m.NetworkVelocity > HighVelocity:
		return QuadrantBubble
	case e > DeviationEmergency:
		return QuadrantBottleneck
	case e < -DeviationEmergency:
		return QuadrantCrash
	case m.NetworkVelocity < LowVelocity && m.TransactionVolume < LowVolume:
		return QuadrantStagnation
	case m.LiquidityDepth > HighLiquidity && m.TransactionVolume < LowVolume:
		return QuadrantVacuum
	default:
		return QuadrantGoldenEra
	}
}

// Evaluate advances the PID controller one tick and produces the core
// GovernanceParams (before the legacy post-adjustment chain runs).
func (c *Core) Evaluate(m NetworkMetrics) GovernanceParams {
	e := errorSignal(m)

	c.integral = clamp(c.integral+e, IntegralClampLo, IntegralClampHi)

	var d float64
	if c.initialized {
		d = e - c.prevError
	}
	c.prevError = e
	c.initialized = true

	h := healthScore(e, m)
	base := baseAdjustment(h)

	adj := clamp(base+0.5*e+0.1*c.integral+0.05*d, OutputClampLo, OutputClampHi)

	quadrant := ClassifyQuadrant(e, m)
	demurrage := QuadrantDemurrage[quadrant]

	tierRates := make(map[meshtypes.MarketTier]float64, len(meshtypes.AllTiers))
	for _, t := range meshtypes.AllTiers {
		s := meshtypes.TierModifierSensitivity[t]
		mod := 1 + adj*s
		rate := BaseFee * mod
		capF, _ := meshtypes.ConstitutionalCaps[t].Float64()
		if rate > capF {
			rate = capF
		}
		if rate < 0 {
			rate = 0
		}
		tierRates[t] = rate
	}

	return GovernanceParams{
		FeeModifier:     adj,
		TierFeeRate:     tierRates,
		Demurrage:       demurrage,
		Quadrant:        quadrant,
		HealthScore:     h,
		ErrorSignal:     e,
		SurgeMultiplier: 1.0,
	}
}

// Reset clears the PID's integral and derivative memory, used by
// Engine.reset() (spec.md §8 round-trip property).
func (c *Core) Reset() {
	c.integral = 0
	c.prevError = 0
	c.initialized = false
}

// EffectiveFee computes min(rate * V, cap * V) for tier L on a packet of
// value V (spec.md §4.E). rate is the tier's already-modified fee rate
// (base rate times the tier modifier, as in GovernanceParams.TierFeeRate).
func EffectiveFee(tier meshtypes.MarketTier, rate float64, value meshtypes.GoldGrams) meshtypes.GoldGrams {
	byRate := value.MulFloat(rate)
	byCap := value.Mul(tier.FeeCap())
	return meshtypes.Min(byRate, byCap)
}

// RewardSplit returns (0.8*T, 0.2*T), the egress/transit reward split
// helper (spec.md §4.E).
func RewardSplit(total meshtypes.GoldGrams) (egress, transit meshtypes.GoldGrams) {
	return total.MulFloat(0.8), total.MulFloat(0.2)
}
