package meshtypes

import "github.com/shopspring/decimal"

// MarketTier classifies a packet by its original value. Each tier carries
// a fee cap, a per-tick demurrage lambda, a TTL, and a hop limit
// (spec.md §6 tier table).
type MarketTier uint8

const (
	TierL0 MarketTier = iota
	TierL1
	TierL2
	TierL3
)

func (t MarketTier) String() string {
	switch t {
	case TierL0:
		return "L0"
	case TierL1:
		return "L1"
	case TierL2:
		return "L2"
	case TierL3:
		return "L3"
	default:
		return "unknown"
	}
}

// tierSpec holds the four constants spec.md §6 assigns per tier.
type tierSpec struct {
	FeeCap          decimal.Decimal
	DemurrageLambda decimal.Decimal
	TTLTicks        int64
	HopLimit        int
}

var tierTable = map[MarketTier]tierSpec{
	TierL0: {
		FeeCap:          decimal.NewFromFloat(0.05),
		DemurrageLambda: decimal.NewFromFloat(1.39e-5),
		TTLTicks:        100,
		HopLimit:        10,
	},
	TierL1: {
		FeeCap:          decimal.NewFromFloat(0.02),
		DemurrageLambda: decimal.NewFromFloat(1.157e-8),
		TTLTicks:        500,
		HopLimit:        20,
	},
	TierL2: {
		FeeCap:          decimal.NewFromFloat(0.005),
		DemurrageLambda: decimal.NewFromFloat(1.157e-9),
		TTLTicks:        2000,
		HopLimit:        40,
	},
	TierL3: {
		FeeCap:          decimal.NewFromFloat(0.001),
		DemurrageLambda: decimal.NewFromFloat(1.157e-10),
		TTLTicks:        7000,
		HopLimit:        80,
	},
}

func (t MarketTier) FeeCap() decimal.Decimal          { return tierTable[t].FeeCap }
func (t MarketTier) DemurrageLambda() decimal.Decimal { return tierTable[t].DemurrageLambda }
func (t MarketTier) TTLTicks() int64                  { return tierTable[t].TTLTicks }
func (t MarketTier) HopLimit() int                    { return tierTable[t].HopLimit }

// OrbitTimeoutTicks is the per-tier Held-packet orbit limit: ttl_ticks/2,
// except L3 which intentionally uses 5500 — past the 5000-tick dissolution
// threshold so dissolution has a chance to fire first (spec.md §4.H step 5,
// §9 design note on the two orbit-timeout paths).
func (t MarketTier) OrbitTimeoutTicks() int64 {
	if t == TierL3 {
		return 5500
	}
	return tierTable[t].TTLTicks / 2
}

// tierValueRange is the uniform value range the traffic generator draws
// from for a given tier (spec.md §4.I).
type tierValueRange struct {
	Min, Max float64
}

var tierValueRanges = map[MarketTier]tierValueRange{
	TierL0: {Min: 0.5, Max: 10},
	TierL1: {Min: 10, Max: 1000},
	TierL2: {Min: 1000, Max: 100000},
	TierL3: {Min: 100000, Max: 500000},
}

func (t MarketTier) ValueRange() (min, max float64) {
	r := tierValueRanges[t]
	return r.Min, r.Max
}

// ClassifyTier maps an amount to its MarketTier using the tier value
// ranges' upper bounds, boundary-inclusive below (spec.md §8: 10.0 is L0,
// 10.01 is L1).
func ClassifyTier(value GoldGrams) MarketTier {
	v := value.Float64()
	switch {
	case v <= 10:
		return TierL0
	case v <= 1000:
		return TierL1
	case v <= 100000:
		return TierL2
	default:
		return TierL3
	}
}

// TierPowerLawCDF is the cumulative tier-selection distribution the
// traffic generator samples against (spec.md §4.I).
var TierPowerLawCDF = []struct {
	Tier MarketTier
	CDF  float64
}{
	{TierL0, 0.60},
	{TierL1, 0.85},
	{TierL2, 0.97},
	{TierL3, 1.00},
}

// ConstitutionalCaps are the per-tier fee caps the Governor may never
// cross regardless of its computed modifier (spec.md §4.E).
var ConstitutionalCaps = map[MarketTier]decimal.Decimal{
	TierL0: decimal.NewFromFloat(0.05),
	TierL1: decimal.NewFromFloat(0.02),
	TierL2: decimal.NewFromFloat(0.005),
	TierL3: decimal.NewFromFloat(0.001),
}

// TierModifierSensitivity is s_L in m_L = 1 + adj*s_L (spec.md §4.E).
var TierModifierSensitivity = map[MarketTier]float64{
	TierL0: 1.5,
	TierL1: 1.2,
	TierL2: 0.8,
	TierL3: 0.5,
}

// AllTiers enumerates tiers in a fixed order for deterministic iteration
// (spec.md §5 determinism requirement).
var AllTiers = []MarketTier{TierL0, TierL1, TierL2, TierL3}
