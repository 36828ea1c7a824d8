package benchmark

import (
	"testing"

	"valuemesh/engine"
	"valuemesh/meshtypes"
)

func liquidityScenario() Scenario {
	return Scenario{
		Name:          "liquidity-success",
		NodeCount:     4,
		Ticks:         20,
		BaseGoldPrice: 2600,
		Setup: func(e *engine.Engine) {
			for _, id := range []meshtypes.NodeId{meshtypes.NodeIdForIndex(3)} {
				e.SetNodeCrypto(id, meshtypes.GoldGramsFromFloat(200))
			}
			e.SpawnPacket(meshtypes.NodeIdForIndex(0), meshtypes.GoldGramsFromFloat(100))
		},
		PassCriteria: []PassCriterion{
			{Name: "positive-output", Eval: func(r RunResult) bool {
				return r.FinalTick.Totals.Output.IsPositive()
			}},
		},
	}
}

func TestRunScenarioReturnsPassingResult(t *testing.T) {
	result := RunScenario(liquidityScenario(), 1)
	if !result.Passed {
		t.Errorf("expected liquidity scenario to pass, failed gates: %v", result.FailedGates)
	}
	if result.Ticks != 20 {
		t.Errorf("expected 20 recorded ticks, got %d", result.Ticks)
	}
}

func TestRunScenarioDeterministicForSameSeed(t *testing.T) {
	a := RunScenario(liquidityScenario(), 99)
	b := RunScenario(liquidityScenario(), 99)

	if !a.FinalTick.Totals.Output.Equal(b.FinalTick.Totals.Output) {
		t.Error("two runs with identical seed and scenario must produce identical final totals")
	}
}

func TestRunMonteCarloAggregatesAcrossSeeds(t *testing.T) {
	report := RunMonteCarlo(liquidityScenario(), 1, 5)

	if len(report.Runs) != 5 {
		t.Fatalf("expected 5 runs, got %d", len(report.Runs))
	}
	if report.PassRate != 1.0 {
		t.Errorf("expected all 5 liquidity-success runs to pass, got pass rate %f", report.PassRate)
	}
	if report.SettlementCount.Mean <= 0 {
		t.Error("expected a positive mean settlement count across runs")
	}
	if report.PegMeanAbsDeviation.CILow > report.PegMeanAbsDeviation.CIHigh {
		t.Error("CI lower bound must not exceed the upper bound")
	}
}

func TestMidEventFiresAtScheduledTick(t *testing.T) {
	killed := false
	s := liquidityScenario()
	s.NodeCount = 24
	s.Ticks = 50
	s.MidEvents = []MidEvent{
		{Tick: 10, Action: func(e *engine.Engine) {
			e.KillNode(meshtypes.NodeIdForIndex(2))
			killed = true
		}},
	}

	RunScenario(s, 1)
	if !killed {
		t.Error("expected the mid-run event to fire during the scenario")
	}
}

func TestCurveValueAtFallsBackToPriorEntry(t *testing.T) {
	c := Curve{10: 2600, 100: 3900, 200: 1950}
	if got := c.ValueAt(50, 0); got != 2600 {
		t.Errorf("expected tick 50 to use the tick-10 entry (2600), got %f", got)
	}
	if got := c.ValueAt(150, 0); got != 3900 {
		t.Errorf("expected tick 150 to use the tick-100 entry (3900), got %f", got)
	}
	if got := c.ValueAt(5, 1000); got != 1000 {
		t.Errorf("expected a tick before any curve entry to fall back to the default, got %f", got)
	}
}
