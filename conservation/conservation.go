// Package conservation implements the invariant checker guarding every
// value-transfer in the mesh: input must always equal output plus fees
// plus burned demurrage plus whatever is still in flight (spec.md §4.B).
package conservation

import (
	"errors"

	"valuemesh/meshtypes"
)

// ErrCircuitBreakerTripped is returned by every call on a Law once its
// cumulative error has exceeded the breaker threshold, until Reset.
var ErrCircuitBreakerTripped = errors.New("conservation: circuit breaker tripped")

// Tolerance is the per-check epsilon absorbing rounding noise (spec.md §4.B).
var Tolerance = meshtypes.Epsilon

// Result is the outcome of a single verification call.
type Result struct {
	Balanced       bool
	Error          meshtypes.GoldGrams
	BreakerTripped bool
}

// Law tracks cumulative verification error and trips a circuit breaker
// once that error exceeds a configured threshold.
type Law struct {
	cumulativeError  meshtypes.GoldGrams
	breakerThreshold meshtypes.GoldGrams
	breakerTripped   bool
}

// NewLaw constructs a Law with the given circuit-breaker threshold.
func NewLaw(breakerThreshold meshtypes.GoldGrams) *Law {
	return &Law{
		cumulativeError:  meshtypes.Zero,
		breakerThreshold: breakerThreshold,
	}
}

// CumulativeError reports the accumulated absolute error since construction
// or the last Reset.
func (l *Law) CumulativeError() meshtypes.GoldGrams {
	return l.cumulativeError
}

// BreakerTripped reports whether the breaker is currently tripped.
func (l *Law) BreakerTripped() bool {
	return l.breakerTripped
}

// Reset clears the breaker and the cumulative error exactly (spec.md §8
// round-trip property).
func (l *Law) Reset() {
	l.cumulativeError = meshtypes.Zero
	l.breakerTripped = false
}

// VerifyTick checks the tick-scope invariant:
// total_input = total_output + total_fees_collected + total_demurrage_burned + active_value
func (l *Law) VerifyTick(totalInput, totalOutput, totalFees, totalBurned, activeValue meshtypes.GoldGrams) (Result, error) {
	rhs := totalOutput.Add(totalFees).Add(totalBurned).Add(activeValue)
	return l.verify(totalInput, rhs)
}

// VerifySettlement checks the per-settlement invariant:
// initial_value = settled_value + fees + demurrage
func (l *Law) VerifySettlement(initialValue, settledValue, fees, demurrage meshtypes.GoldGrams) (Result, error) {
	rhs := settledValue.Add(fees).Add(demurrage)
	return l.verify(initialValue, rhs)
}

func (l *Law) verify(lhs, rhs meshtypes.GoldGrams) (Result, error) {
	if l.breakerTripped {
		return Result{Balanced: false, BreakerTripped: true}, ErrCircuitBreakerTripped
	}

	diff := lhs.Sub(rhs).Abs()
	balanced := diff.LessThanOrEqual(Tolerance)

	if !balanced {
		l.cumulativeError = l.cumulativeError.Add(diff)
		if l.cumulativeError.GreaterThan(l.breakerThreshold) {
			l.breakerTripped = true
			return Result{Balanced: false, Error: diff, BreakerTripped: true}, ErrCircuitBreakerTripped
		}
	}

	return Result{Balanced: balanced, Error: diff, BreakerTripped: false}, nil
}
