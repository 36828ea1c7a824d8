package dissolution

import (
	"testing"

	"valuemesh/meshtypes"
)

func g(f float64) meshtypes.GoldGrams { return meshtypes.GoldGramsFromFloat(f) }

func TestIsEligibleBoundary(t *testing.T) {
	if !IsEligible(DissolutionTimeoutTicks) {
		t.Error("exactly DissolutionTimeoutTicks elapsed should be eligible")
	}
	if IsEligible(DissolutionTimeoutTicks - 1) {
		t.Error("one tick earlier than DissolutionTimeoutTicks should not be eligible")
	}
}

func TestDistributeNoQualifiedNodes(t *testing.T) {
	_, err := Distribute(g(100), nil, nil)
	if err != ErrNoQualifiedNodes {
		t.Errorf("expected ErrNoQualifiedNodes, got %v", err)
	}
}

func TestDistributeZeroResidual(t *testing.T) {
	_, err := Distribute(meshtypes.Zero, []meshtypes.NodeId{"n0"}, nil)
	if err != ErrZeroResidualValue {
		t.Errorf("expected ErrZeroResidualValue, got %v", err)
	}
}

func TestDistributeWeightsShardHoldersDouble(t *testing.T) {
	qualified := []meshtypes.NodeId{"n0", "n1"}
	shardHolders := map[meshtypes.NodeId]struct{}{"n0": {}}

	recipients, err := Distribute(g(300), qualified, shardHolders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %d", len(recipients))
	}

	var byNode = map[meshtypes.NodeId]meshtypes.GoldGrams{}
	var total meshtypes.GoldGrams
	for _, r := range recipients {
		byNode[r.Node] = r.Share
		total = total.Add(r.Share)
	}

	// Weight 2 vs weight 1 out of total weight 3: n0 gets 200, n1 gets 100.
	if !byNode["n0"].Equal(g(200)) {
		t.Errorf("shard holder n0 should receive 2/3 of residual (200), got %s", byNode["n0"])
	}
	if !byNode["n1"].Equal(g(100)) {
		t.Errorf("non-shard-holder n1 should receive 1/3 of residual (100), got %s", byNode["n1"])
	}
	if !total.Equal(g(300)) {
		t.Errorf("recipients must sum exactly to the residual, got %s", total)
	}
}
