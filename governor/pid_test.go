package governor

import (
	"testing"

	"valuemesh/meshtypes"
)

func TestClassifyQuadrantBubbleVsBottleneck(t *testing.T) {
	m := NetworkMetrics{NetworkVelocity: HighVelocity + 0.1}
	if q := ClassifyQuadrant(DeviationEmergency+0.01, m); q != QuadrantBubble {
		t.Errorf("high deviation with high velocity should classify as Bubble, got %s", q)
	}

	m2 := NetworkMetrics{NetworkVelocity: LowVelocity}
	if q := ClassifyQuadrant(DeviationEmergency+0.01, m2); q != QuadrantBottleneck {
		t.Errorf("high deviation with ordinary velocity should classify as Bottleneck, got %s", q)
	}
}

func TestClassifyQuadrantCrash(t *testing.T) {
	if q := ClassifyQuadrant(-DeviationEmergency-0.01, NetworkMetrics{}); q != QuadrantCrash {
		t.Errorf("expected Crash, got %s", q)
	}
}

func TestClassifyQuadrantStagnationAndVacuum(t *testing.T) {
	stag := NetworkMetrics{NetworkVelocity: LowVelocity - 0.01, TransactionVolume: LowVolume - 1}
	if q := ClassifyQuadrant(0, stag); q != QuadrantStagnation {
		t.Errorf("expected Stagnation, got %s", q)
	}

	vac := NetworkMetrics{LiquidityDepth: HighLiquidity + 1, TransactionVolume: LowVolume - 1, NetworkVelocity: 1.0}
	if q := ClassifyQuadrant(0, vac); q != QuadrantVacuum {
		t.Errorf("expected Vacuum, got %s", q)
	}
}

func TestEvaluateNeverCrossesConstitutionalCap(t *testing.T) {
	core := NewCore()
	// Drive a large sustained positive error to push adj to its clamp.
	m := NetworkMetrics{CurrentGoldPrice: 4000, TargetGoldPrice: 2600, NetworkVelocity: 2.0}
	var params GovernanceParams
	for i := 0; i < 50; i++ {
		params = core.Evaluate(m)
	}
	for _, tier := range meshtypes.AllTiers {
		cap, _ := meshtypes.ConstitutionalCaps[tier].Float64()
		if params.TierFeeRate[tier] > cap+1e-9 {
			t.Errorf("tier %s fee rate %f exceeds constitutional cap %f", tier, params.TierFeeRate[tier], cap)
		}
	}
}

func TestResetClearsIntegralMemory(t *testing.T) {
	core := NewCore()
	m := NetworkMetrics{CurrentGoldPrice: 4000, TargetGoldPrice: 2600}
	core.Evaluate(m)
	core.Evaluate(m)
	core.Reset()

	fresh := NewCore()
	afterReset := core.Evaluate(m)
	freshResult := fresh.Evaluate(m)
	if afterReset.FeeModifier != freshResult.FeeModifier {
		t.Error("a reset Core must behave identically to a freshly constructed one")
	}
}

func TestEffectiveFeeRespectsCap(t *testing.T) {
	fee := EffectiveFee(meshtypes.TierL0, 10.0, meshtypes.GoldGramsFromFloat(100))
	cap := meshtypes.GoldGramsFromFloat(100).Mul(meshtypes.TierL0.FeeCap())
	if !fee.Equal(cap) {
		t.Errorf("an absurd rate must be clamped to the tier's fee cap, expected %s got %s", cap, fee)
	}
}

func TestRewardSplit(t *testing.T) {
	egress, transit := RewardSplit(meshtypes.GoldGramsFromFloat(100))
	if !egress.Equal(meshtypes.GoldGramsFromFloat(80)) {
		t.Errorf("expected egress share 80, got %s", egress)
	}
	if !transit.Equal(meshtypes.GoldGramsFromFloat(20)) {
		t.Errorf("expected transit share 20, got %s", transit)
	}
}
