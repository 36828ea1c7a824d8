package governor

import "valuemesh/meshtypes"

// The legacy chain applies a fixed, ordered sequence of f64
// post-adjustments on top of the core PID's output. spec.md's Open
// Question preserves this two-layer design verbatim: panic widening,
// NGauge organic/speculative discount or amplifier, and a surge
// multiplier driven by recent volatility. Each stage is independently
// testable and mutates only the params it concerns.

// ApplyPanic widens the fee modifier under panic conditions: a high
// panic level pushes fees up (protective) proportional to panic level.
func ApplyPanic(p GovernanceParams, panicLevel float64) GovernanceParams {
	if panicLevel <= 0 {
		return p
	}
	widened := p.FeeModifier + panicLevel*0.01
	p.FeeModifier = clamp(widened, OutputClampLo*2, OutputClampHi*2)
	for t := range p.TierFeeRate {
		p.TierFeeRate[t] = clampToCapFloat(t, p.TierFeeRate[t]*(1+panicLevel*0.5))
	}
	return p
}

// ApplyNGaugeDiscount relaxes fees when activity is organic
// (organicRatio >= 0.3, i.e. not flagged speculative) and otherwise
// leaves the rate alone — amplification for speculative activity is a
// separate stage (ApplySpeculationAmplifier) so each effect is isolated.
func ApplyNGaugeDiscount(p GovernanceParams, organicRatio float64) GovernanceParams {
	if organicRatio < 0.3 {
		return p
	}
	discount := 0.9
	for t := range p.TierFeeRate {
		p.TierFeeRate[t] = clampToCapFloat(t, p.TierFeeRate[t]*discount)
	}
	return p
}

// ApplySpeculationAmplifier multiplies fees 1.5x when the NGauge tracker
// flags the current window as speculative (spec.md §4.F).
func ApplySpeculationAmplifier(p GovernanceParams, speculative bool) GovernanceParams {
	if !speculative {
		return p
	}
	for t := range p.TierFeeRate {
		p.TierFeeRate[t] = clampToCapFloat(t, p.TierFeeRate[t]*1.5)
	}
	return p
}

// ApplySurge raises the SurgeMultiplier under elevated volatility; this
// multiplier is applied at settlement time to transit/egress payouts
// alongside the hop-based velocity bonus (spec.md §4.H step 7), not to
// the fee rate itself.
func ApplySurge(p GovernanceParams, volatility float64) GovernanceParams {
	switch {
	case volatility > 0.5:
		p.SurgeMultiplier = 1.5
	case volatility > 0.25:
		p.SurgeMultiplier = 1.2
	default:
		p.SurgeMultiplier = 1.0
	}
	return p
}

func clampToCapFloat(t meshtypes.MarketTier, v float64) float64 {
	capF, _ := meshtypes.ConstitutionalCaps[t].Float64()
	if v > capF {
		return capF
	}
	if v < 0 {
		return 0
	}
	return v
}
