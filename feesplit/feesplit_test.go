package feesplit

import (
	"testing"

	"valuemesh/meshtypes"
)

func g(f float64) meshtypes.GoldGrams { return meshtypes.GoldGramsFromFloat(f) }

func TestDistributeZeroFeeErrors(t *testing.T) {
	d := NewDistributor()
	_, err := d.Distribute(meshtypes.Zero, meshtypes.NodeId("egress"), nil)
	if err != ErrZeroFee {
		t.Errorf("expected ErrZeroFee, got %v", err)
	}
}

func TestDistributeNoTransitsAllToEgress(t *testing.T) {
	d := NewDistributor()
	dist, err := d.Distribute(g(100), meshtypes.NodeId("egress"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dist.Egress.Equal(g(100)) {
		t.Errorf("expected egress to receive the full fee, got %s", dist.Egress)
	}
	if len(dist.Transits) != 0 {
		t.Error("expected no transit payments")
	}
}

func TestDistributeProRataByBytesIsExact(t *testing.T) {
	d := NewDistributor()
	transits := []TransitHop{
		{Node: "t1", Bytes: 300},
		{Node: "t2", Bytes: 100},
	}
	dist, err := d.Distribute(g(100), "egress", transits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := dist.Egress
	for _, tp := range dist.Transits {
		total = total.Add(tp.Payment)
	}
	if !total.Equal(g(100)) {
		t.Errorf("egress + transit payments must sum exactly to the fee: got %s", total)
	}

	// t1 carried 3x the bytes of t2, so should receive ~3x the transit share.
	if !dist.Transits[0].Payment.GreaterThan(dist.Transits[1].Payment) {
		t.Error("higher-byte transit hop should receive a larger pro-rata share")
	}
}

func TestDistributeEqualSplitWhenBytesZero(t *testing.T) {
	d := NewDistributor()
	transits := []TransitHop{
		{Node: "t1", Bytes: 0},
		{Node: "t2", Bytes: 0},
	}
	dist, err := d.Distribute(g(100), "egress", transits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dist.Transits[0].Payment.Equal(dist.Transits[1].Payment) {
		t.Error("transit hops with no byte data must split the pool equally")
	}
}
