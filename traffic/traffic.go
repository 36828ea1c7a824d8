// Package traffic implements the Poisson-distributed packet spawner with
// power-law tier selection (spec.md §4.I).
package traffic

import (
	"math"
	"math/rand/v2"

	"valuemesh/meshtypes"
)

// Generator drives packet arrivals for one engine instance. It owns a
// seeded, deterministic ChaCha8 PRNG so two generators constructed with
// the same seed and driven identically produce identical sequences
// (spec.md §4.I, §5 determinism, §8 property 5).
type Generator struct {
	rng *rand.Rand
}

// NewGenerator seeds a ChaCha8-backed PRNG deterministically from a
// 64-bit seed, per spec.md §4.I ("a seeded PRNG ... ChaCha8 or
// equivalent").
func NewGenerator(seed uint64) *Generator {
	var seed32 [32]byte
	// Expand the 64-bit seed into the 256-bit ChaCha8 key with a
	// splitmix64-style mix so nearby seeds (base_seed, base_seed+1, ...)
	// produce well-separated streams, the way a Monte-Carlo run set needs.
	state := seed
	for i := 0; i < 4; i++ {
		state += 0x9E3779B97F4A7C15
		z := state
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z = z ^ (z >> 31)
		for b := 0; b < 8; b++ {
			seed32[i*8+b] = byte(z >> (b * 8))
		}
	}
	src := rand.NewChaCha8(seed32)
	return &Generator{rng: rand.New(src)}
}

// Spawn is one packet to mint this tick: its sampled tier and a value
// drawn uniformly from that tier's range.
type Spawn struct {
	Tier  meshtypes.MarketTier
	Value meshtypes.GoldGrams
}

// Lambda computes the Poisson arrival rate for a tick: demand * 5 *
// sqrt(nodes/24) (spec.md §4.I).
func Lambda(demand float64, nodeCount int) float64 {
	return demand * 5 * math.Sqrt(float64(nodeCount)/24)
}

// PoissonSample draws k ~ Poisson(lambda), using Knuth's algorithm for
// lambda < 30 and a normal approximation otherwise (spec.md §4.I).
func (g *Generator) PoissonSample(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda < 30 {
		return g.knuthPoisson(lambda)
	}
	return g.normalApproxPoisson(lambda)
}

func (g *Generator) knuthPoisson(lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= g.rng.Float64()
		if p <= l {
			return k - 1
		}
	}
}

func (g *Generator) normalApproxPoisson(lambda float64) int {
	z := g.rng.NormFloat64()
	k := int(math.Round(lambda + z*math.Sqrt(lambda)))
	if k < 0 {
		k = 0
	}
	return k
}

// SampleTier draws a tier from the power-law CDF (spec.md §4.I).
func (g *Generator) SampleTier() meshtypes.MarketTier {
	r := g.rng.Float64()
	for _, entry := range meshtypes.TierPowerLawCDF {
		if r <= entry.CDF {
			return entry.Tier
		}
	}
	return meshtypes.TierL3
}

// SampleValue draws a uniform value within the tier's range.
func (g *Generator) SampleValue(tier meshtypes.MarketTier) meshtypes.GoldGrams {
	min, max := tier.ValueRange()
	v := min + g.rng.Float64()*(max-min)
	return meshtypes.GoldGramsFromFloat(v)
}

// ShouldCancel applies demand destruction: if the current fee rate
// exceeds 10%, a candidate packet is canceled with probability
// min(5*(rate-0.10), 1) (spec.md §4.I).
func (g *Generator) ShouldCancel(feeRate float64) bool {
	if feeRate <= 0.10 {
		return false
	}
	p := 5 * (feeRate - 0.10)
	if p > 1 {
		p = 1
	}
	return g.rng.Float64() < p
}

// GenerateSpawns samples k arrivals for this tick (demand-destruction
// applied per-candidate) and returns the surviving spawns.
func (g *Generator) GenerateSpawns(demand float64, nodeCount int, currentFeeRate float64) []Spawn {
	lambda := Lambda(demand, nodeCount)
	k := g.PoissonSample(lambda)

	spawns := make([]Spawn, 0, k)
	for i := 0; i < k; i++ {
		if g.ShouldCancel(currentFeeRate) {
			continue
		}
		tier := g.SampleTier()
		value := g.SampleValue(tier)
		spawns = append(spawns, Spawn{Tier: tier, Value: value})
	}
	return spawns
}

// IngressIndex picks a uniformly random ingress index among n ingress
// nodes for one spawn.
func (g *Generator) IngressIndex(n int) int {
	if n <= 0 {
		return 0
	}
	return g.rng.IntN(n)
}
