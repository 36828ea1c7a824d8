package benchmark

import (
	"math"

	"valuemesh/engine"
)

// PegTracker accumulates peg-deviation statistics over a run. spec.md
// §4.K names it but does not define its fields; grounded on
// original_source/arena-sim's time_series.rs peg-error accumulator.
type PegTracker struct {
	sumAbsDeviation float64
	maxAbsDeviation float64
	samples         int
	breachTicks     int64
}

// Observe folds one tick's peg deviation into the tracker.
func (t *PegTracker) Observe(deviation float64) {
	abs := math.Abs(deviation)
	t.sumAbsDeviation += abs
	if abs > t.maxAbsDeviation {
		t.maxAbsDeviation = abs
	}
	t.samples++
	if abs >= 0.18 { // DeviationEmergency threshold, governor.DeviationEmergency
		t.breachTicks++
	}
}

// MeanAbsDeviation is the run's average |peg_deviation|.
func (t *PegTracker) MeanAbsDeviation() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.sumAbsDeviation / float64(t.samples)
}

// MaxAbsDeviation is the run's worst single-tick |peg_deviation|.
func (t *PegTracker) MaxAbsDeviation() float64 { return t.maxAbsDeviation }

// BreachTicks counts ticks that crossed the emergency deviation threshold.
func (t *PegTracker) BreachTicks() int64 { return t.breachTicks }

// ConservationTracker accumulates conservation-law health over a run.
// Grounded on original_source/arena-sim's metrics.rs invariant counters.
type ConservationTracker struct {
	ticksChecked int64
	maxError     float64
	breakerTrips int64
}

// Observe folds one tick's TickResult into the tracker.
func (t *ConservationTracker) Observe(r engine.TickResult) {
	t.ticksChecked++
	if r.CircuitBreakerActive {
		t.breakerTrips++
	}
}

// BreakerTrips reports how many ticks in the run had an active breaker.
func (t *ConservationTracker) BreakerTrips() int64 { return t.breakerTrips }

// TicksChecked reports how many ticks this tracker observed.
func (t *ConservationTracker) TicksChecked() int64 { return t.ticksChecked }
