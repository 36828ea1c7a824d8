package meshtypes

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNegativeResult names the condition of an amount that would go
// negative. No function in this package returns it: Sub returns negative
// amounts as they are, and MaxZero clamps them to zero.
var ErrNegativeResult = errors.New("meshtypes: operation would produce a negative amount")

// Epsilon is the fixed-point tolerance used throughout conservation and
// fee accounting. Rounding error below this magnitude is not an error.
var Epsilon = decimal.New(1, -4) // 10^-4 gold-grams

// GoldGrams is a fixed-point gold-gram amount. It wraps decimal.Decimal so
// every accounting path (conservation, fee splits, demurrage) uses exact
// decimal arithmetic instead of binary floats.
type GoldGrams struct {
	d decimal.Decimal
}

// Zero is the distinguished zero value.
var Zero = GoldGrams{d: decimal.Zero}

// NewGoldGrams builds a GoldGrams from an integer count of grams and a
// fractional exponent, matching decimal.New's (value, exp) convention.
func NewGoldGrams(value int64, exp int32) GoldGrams {
	return GoldGrams{d: decimal.New(value, exp)}
}

// GoldGramsFromFloat converts a host float64 into GoldGrams. Documented
// lossy: float64 cannot represent all Decimal values exactly. Used where
// amounts originate as host floats, such as the traffic generator's
// sampled packet values; gold price and demand factor stay float64.
func GoldGramsFromFloat(f float64) GoldGrams {
	return GoldGrams{d: decimal.NewFromFloat(f)}
}

// GoldGramsFromString parses an exact decimal literal, e.g. scenario config.
func GoldGramsFromString(s string) (GoldGrams, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, err
	}
	return GoldGrams{d: d}, nil
}

// Float64 converts back to a host float64. Lossy; for display/metrics only.
func (g GoldGrams) Float64() float64 {
	f, _ := g.d.Float64()
	return f
}

func (g GoldGrams) Add(other GoldGrams) GoldGrams {
	return GoldGrams{d: g.d.Add(other.d)}
}

func (g GoldGrams) Sub(other GoldGrams) GoldGrams {
	return GoldGrams{d: g.d.Sub(other.d)}
}

// Mul multiplies by a decimal scalar using banker's rounding (round-half-
// to-even), decimal.Decimal's native RoundBank, at 10 fractional digits —
// the precision spec.md §3 requires for conservation accounting.
func (g GoldGrams) Mul(scalar decimal.Decimal) GoldGrams {
	return GoldGrams{d: g.d.Mul(scalar).RoundBank(10)}
}

// MulFloat multiplies by a host float64 scalar (e.g. a fee rate computed
// by the Governor's f64 legacy layer) and rounds the same way as Mul.
func (g GoldGrams) MulFloat(scalar float64) GoldGrams {
	return g.Mul(decimal.NewFromFloat(scalar))
}

func (g GoldGrams) Neg() GoldGrams {
	return GoldGrams{d: g.d.Neg()}
}

func (g GoldGrams) Cmp(other GoldGrams) int {
	return g.d.Cmp(other.d)
}

func (g GoldGrams) Equal(other GoldGrams) bool {
	return g.d.Equal(other.d)
}

func (g GoldGrams) GreaterThan(other GoldGrams) bool {
	return g.d.GreaterThan(other.d)
}

func (g GoldGrams) GreaterThanOrEqual(other GoldGrams) bool {
	return g.d.GreaterThanOrEqual(other.d)
}

func (g GoldGrams) LessThan(other GoldGrams) bool {
	return g.d.LessThan(other.d)
}

func (g GoldGrams) LessThanOrEqual(other GoldGrams) bool {
	return g.d.LessThanOrEqual(other.d)
}

func (g GoldGrams) IsZero() bool {
	return g.d.IsZero()
}

func (g GoldGrams) IsNegative() bool {
	return g.d.IsNegative()
}

func (g GoldGrams) IsPositive() bool {
	return g.d.IsPositive()
}

// Abs returns the magnitude of the error, used when verifying the
// conservation law (the law cares about |error|, not its sign).
func (g GoldGrams) Abs() GoldGrams {
	return GoldGrams{d: g.d.Abs()}
}

// Min returns the smaller of two amounts; used pervasively to clamp fees
// to remaining budgets and settlements to node liquidity.
func Min(a, b GoldGrams) GoldGrams {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// Max returns the larger of two amounts. It does not clamp by itself;
// MaxZero uses it with Zero for the "never go negative" case (spec.md
// §4.H step 7: settlement_value).
func Max(a, b GoldGrams) GoldGrams {
	if a.GreaterThanOrEqual(b) {
		return a
	}
	return b
}

// MaxZero clamps a possibly-negative amount to zero.
func MaxZero(a GoldGrams) GoldGrams {
	return Max(a, Zero)
}

func (g GoldGrams) String() string {
	return g.d.StringFixed(10)
}

// Decimal exposes the underlying decimal.Decimal for callers that need
// scalar construction (e.g. Governor rate computations).
func (g GoldGrams) Decimal() decimal.Decimal {
	return g.d
}

func FromDecimal(d decimal.Decimal) GoldGrams {
	return GoldGrams{d: d}
}

// MarshalJSON delegates to decimal.Decimal so reports and scenario
// configs serialize exact amounts as quoted decimal strings (decimal's
// default JSON form), not opaque structs.
func (g GoldGrams) MarshalJSON() ([]byte, error) {
	return g.d.MarshalJSON()
}

// UnmarshalJSON delegates to decimal.Decimal.
func (g *GoldGrams) UnmarshalJSON(data []byte) error {
	return g.d.UnmarshalJSON(data)
}
