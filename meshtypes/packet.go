package meshtypes

import (
	"math"

	"github.com/shopspring/decimal"
)

// PacketState is the closed set of lifecycle states a packet can occupy
// (spec.md §3). Terminal states never mutate further.
type PacketState uint8

const (
	StateMinted PacketState = iota
	StateInTransit
	StateDelivered
	StateSettling
	StateSettled // terminal
	StateHeld
	StateStalled
	StateDispersed
	StateExpired
	StateRefunded // terminal
	StateDissolved // terminal
)

func (s PacketState) String() string {
	switch s {
	case StateMinted:
		return "minted"
	case StateInTransit:
		return "in_transit"
	case StateDelivered:
		return "delivered"
	case StateSettling:
		return "settling"
	case StateSettled:
		return "settled"
	case StateHeld:
		return "held"
	case StateStalled:
		return "stalled"
	case StateDispersed:
		return "dispersed"
	case StateExpired:
		return "expired"
	case StateRefunded:
		return "refunded"
	case StateDissolved:
		return "dissolved"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further mutation of the packet may occur
// (spec.md §3 invariant 4).
func (s PacketState) IsTerminal() bool {
	switch s {
	case StateSettled, StateRefunded, StateDissolved:
		return true
	default:
		return false
	}
}

// Packet is a unit of value routed through the mesh (spec.md §3).
type Packet struct {
	ID         PacketId
	SpawnTick  int64
	OriginNode NodeId

	OriginalValue GoldGrams
	CurrentValue  GoldGrams
	FeeBudget     GoldGrams
	FeesConsumed  GoldGrams

	Tier         MarketTier
	Status       PacketState
	TargetNode   *NodeId
	Hops         int
	HopLimit     int
	RouteHistory []NodeId
	ArrivalTick  int64

	TTL            int64
	OrbitStartTick *int64
}

// NewPacket constructs a freshly minted packet at an ingress node, setting
// the fee budget and hop limit from its tier per spec.md §3.
func NewPacket(id PacketId, spawnTick int64, origin NodeId, value GoldGrams, tier MarketTier, ttlTicks int64) *Packet {
	feeBudget := value.Mul(tier.FeeCap())
	return &Packet{
		ID:            id,
		SpawnTick:     spawnTick,
		OriginNode:    origin,
		OriginalValue: value,
		CurrentValue:  value,
		FeeBudget:     feeBudget,
		FeesConsumed:  Zero,
		Tier:          tier,
		Status:        StateMinted,
		Hops:          0,
		HopLimit:      tier.HopLimit(),
		RouteHistory:  []NodeId{origin},
		TTL:           spawnTick + ttlTicks,
	}
}

// RemainingBudget is fee_budget - fees_consumed, never reported negative.
func (p *Packet) RemainingBudget() GoldGrams {
	return MaxZero(p.FeeBudget.Sub(p.FeesConsumed))
}

// Age is the packet's total age in ticks as of `now`.
func (p *Packet) Age(now int64) int64 {
	return now - p.SpawnTick
}

// EnterHeld transitions the packet into Held, recording orbit_start_tick
// the first time it is entered (spec.md §4.H step 10, §9 design note: both
// orbit-timeout entry paths set it only if unset).
func (p *Packet) EnterHeld(now int64) {
	p.Status = StateHeld
	if p.OrbitStartTick == nil {
		t := now
		p.OrbitStartTick = &t
	}
}

// ClearOrbit clears orbit_start_tick, e.g. on a successful route.
func (p *Packet) ClearOrbit() {
	p.OrbitStartTick = nil
}

// OrbitTicks returns ticks spent in orbit as of now, or 0 if not orbiting.
func (p *Packet) OrbitTicks(now int64) int64 {
	if p.OrbitStartTick == nil {
		return 0
	}
	return now - *p.OrbitStartTick
}

// ApplyDemurrage decays current_value by e^{-lambda} and returns the
// burned delta (spec.md §4.H step 1).
func (p *Packet) ApplyDemurrage(lambda decimal.Decimal) GoldGrams {
	before := p.CurrentValue
	// lambda is a tiny per-tick decay rate; float64 precision is adequate
	// for the decay factor itself, the burned delta is still Decimal-exact.
	decayFactor := decimal.NewFromFloat(math.Exp(-lambda.InexactFloat64()))
	p.CurrentValue = p.CurrentValue.Mul(decayFactor)
	return before.Sub(p.CurrentValue)
}
