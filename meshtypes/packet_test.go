package meshtypes

import "testing"

func TestNewPacketInvariants(t *testing.T) {
	origin := NodeId("node-0")
	value := GoldGramsFromFloat(100)
	p := NewPacket(1, 0, origin, value, TierL1, TierL1.TTLTicks())

	if !p.CurrentValue.Equal(p.OriginalValue) {
		t.Error("freshly minted packet should have current_value == original_value")
	}
	if len(p.RouteHistory) != 1 || p.RouteHistory[0] != origin {
		t.Error("route_history[0] must equal origin_node")
	}
	if p.HopLimit != TierL1.HopLimit() {
		t.Errorf("expected hop limit %d, got %d", TierL1.HopLimit(), p.HopLimit)
	}
	if !p.FeeBudget.Equal(value.Mul(TierL1.FeeCap())) {
		t.Error("fee_budget must equal tier.fee_cap * original_value")
	}
}

func TestApplyDemurrageNeverIncreases(t *testing.T) {
	p := NewPacket(1, 0, NodeId("n0"), GoldGramsFromFloat(1000), TierL0, TierL0.TTLTicks())
	burned := p.ApplyDemurrage(TierL0.DemurrageLambda())

	if p.CurrentValue.GreaterThan(p.OriginalValue) {
		t.Error("current_value must never exceed original_value")
	}
	if !burned.IsPositive() {
		t.Error("demurrage on a positive value should burn a positive amount")
	}
}

func TestEnterHeldSetsOrbitOnce(t *testing.T) {
	p := NewPacket(1, 0, NodeId("n0"), GoldGramsFromFloat(10), TierL0, TierL0.TTLTicks())

	p.EnterHeld(5)
	if p.OrbitTicks(8) != 3 {
		t.Errorf("expected 3 orbit ticks, got %d", p.OrbitTicks(8))
	}

	p.EnterHeld(20) // must not overwrite the original orbit_start_tick
	if p.OrbitTicks(25) != 20 {
		t.Errorf("second EnterHeld must not reset orbit_start_tick: got %d orbit ticks", p.OrbitTicks(25))
	}

	p.ClearOrbit()
	if p.OrbitTicks(30) != 0 {
		t.Error("ClearOrbit must zero subsequent orbit ticks")
	}
}

func TestRemainingBudgetNeverNegative(t *testing.T) {
	p := NewPacket(1, 0, NodeId("n0"), GoldGramsFromFloat(10), TierL0, TierL0.TTLTicks())
	p.FeesConsumed = p.FeeBudget.Add(GoldGramsFromFloat(5))

	if p.RemainingBudget().IsNegative() {
		t.Error("remaining_budget must clamp at zero, never go negative")
	}
}

func TestPacketStateTerminal(t *testing.T) {
	terminal := []PacketState{StateSettled, StateRefunded, StateDissolved}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	nonTerminal := []PacketState{StateMinted, StateInTransit, StateHeld, StateExpired}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
