package governor

// Chain wires the core PID and the legacy post-adjustment stages into the
// single pipeline spec.md's Open Question requires: core.Evaluate, then
// panic, NGauge discount, speculation amplifier, and surge — in that
// fixed order.
type Chain struct {
	Core *Core
}

func NewChain() *Chain {
	return &Chain{Core: NewCore()}
}

// Evaluate runs the full pipeline for one tick and returns the effective
// GovernanceParams the engine should use for fee/demurrage decisions.
func (c *Chain) Evaluate(m NetworkMetrics) GovernanceParams {
	p := c.Core.Evaluate(m)
	p = ApplyPanic(p, m.PanicLevel)
	p = ApplyNGaugeDiscount(p, m.OrganicRatio)
	p = ApplySpeculationAmplifier(p, m.Speculative)
	p = ApplySurge(p, m.Volatility)
	return p
}

// Reset clears the underlying PID core's memory.
func (c *Chain) Reset() {
	c.Core.Reset()
}
