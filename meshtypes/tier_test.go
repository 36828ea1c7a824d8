package meshtypes

import "testing"

func TestClassifyTierBoundary(t *testing.T) {
	if tier := ClassifyTier(GoldGramsFromFloat(10.0)); tier != TierL0 {
		t.Errorf("expected 10.0 to classify as L0, got %s", tier)
	}
	if tier := ClassifyTier(GoldGramsFromFloat(10.01)); tier != TierL1 {
		t.Errorf("expected 10.01 to classify as L1, got %s", tier)
	}
	if tier := ClassifyTier(GoldGramsFromFloat(1000.0)); tier != TierL1 {
		t.Errorf("expected 1000.0 to classify as L1, got %s", tier)
	}
	if tier := ClassifyTier(GoldGramsFromFloat(100000.01)); tier != TierL3 {
		t.Errorf("expected 100000.01 to classify as L3, got %s", tier)
	}
}

func TestOrbitTimeoutTicks(t *testing.T) {
	if got := TierL0.OrbitTimeoutTicks(); got != 50 {
		t.Errorf("L0 orbit timeout: expected 50, got %d", got)
	}
	if got := TierL3.OrbitTimeoutTicks(); got != 5500 {
		t.Errorf("L3 orbit timeout: expected 5500 (past dissolution threshold), got %d", got)
	}
}

func TestConstitutionalCapsNeverZero(t *testing.T) {
	for _, tier := range AllTiers {
		cap, _ := ConstitutionalCaps[tier].Float64()
		if cap <= 0 {
			t.Errorf("tier %s constitutional cap must be positive, got %f", tier, cap)
		}
		if cap != tier.FeeCap().InexactFloat64() {
			t.Errorf("tier %s constitutional cap %f does not match its fee cap %f", tier, cap, tier.FeeCap().InexactFloat64())
		}
	}
}
