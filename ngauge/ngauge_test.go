package ngauge

import "testing"

func TestOrganicRatioDefaultsToOneBelowVelocityThreshold(t *testing.T) {
	tr := NewTracker()
	tr.Sample(5, 50) // velocity <= 100
	if ratio := tr.OrganicRatio(); ratio != 1 {
		t.Errorf("expected organic_ratio 1 when avg_velocity <= 100, got %f", ratio)
	}
	if tr.IsSpeculative() {
		t.Error("a ratio of 1 should never be flagged speculative")
	}
}

func TestIsSpeculativeBelowThreshold(t *testing.T) {
	tr := NewTracker()
	// High velocity, near-zero activity: organic_ratio collapses toward 0.
	for i := 0; i < WindowSize; i++ {
		tr.Sample(0.01, 5000)
	}
	if !tr.IsSpeculative() {
		t.Errorf("expected speculative flag with organic_ratio=%f", tr.OrganicRatio())
	}
}

func TestResetClearsWindows(t *testing.T) {
	tr := NewTracker()
	tr.Sample(100, 5000)
	tr.Reset()
	if ratio := tr.OrganicRatio(); ratio != 1 {
		t.Errorf("a reset tracker with empty windows should report ratio 1, got %f", ratio)
	}
}

func TestWindowCapsAtWindowSize(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < WindowSize*2; i++ {
		tr.Sample(float64(i), float64(i))
	}
	if len(tr.activity) != WindowSize {
		t.Errorf("activity window should cap at %d samples, got %d", WindowSize, len(tr.activity))
	}
}
