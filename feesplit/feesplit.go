// Package feesplit implements the 80/20 egress/transit fee distribution
// (spec.md §4.C).
package feesplit

import (
	"errors"

	"github.com/shopspring/decimal"

	"valuemesh/meshtypes"
)

// ErrZeroFee is returned when attempting to distribute a zero fee.
var ErrZeroFee = errors.New("feesplit: cannot distribute a zero fee")

// DefaultEgressShare and DefaultTransitShare are the 80/20 split spec.md
// §4.C specifies by default.
var (
	DefaultEgressShare  = decimal.NewFromFloat(0.80)
	DefaultTransitShare = decimal.NewFromFloat(0.20)
)

// TransitHop is one transit node's contribution (bytes carried) to a
// settlement, used to weight its pro-rata share of the transit pool.
type TransitHop struct {
	Node  meshtypes.NodeId
	Bytes int64
}

// Distribution is the outcome of splitting a fee: what egress receives and
// what each transit hop receives, in the same order as the input list.
type Distribution struct {
	Egress   meshtypes.GoldGrams
	Transits []TransitPayment
}

type TransitPayment struct {
	Node    meshtypes.NodeId
	Payment meshtypes.GoldGrams
}

// Distributor splits a total fee between an egress node and its transit
// path, pro-rata by bytes carried when available, else equally.
type Distributor struct {
	EgressShare  decimal.Decimal
	TransitShare decimal.Decimal
}

// NewDistributor builds a Distributor using the default 80/20 split.
func NewDistributor() *Distributor {
	return &Distributor{EgressShare: DefaultEgressShare, TransitShare: DefaultTransitShare}
}

// Distribute splits fee F between egress and the transit list. Exact:
// egress_payment + sum(transit_payments) == F, with rounding crumbs
// retained by egress (spec.md §4.C).
func (d *Distributor) Distribute(fee meshtypes.GoldGrams, egress meshtypes.NodeId, transits []TransitHop) (Distribution, error) {
	if fee.IsZero() {
		return Distribution{}, ErrZeroFee
	}

	if len(transits) == 0 {
		return Distribution{Egress: fee}, nil
	}

	egressPayment := fee.Mul(d.EgressShare)
	transitPool := fee.Sub(egressPayment)

	var totalBytes int64
	for _, t := range transits {
		totalBytes += t.Bytes
	}

	payments := make([]TransitPayment, len(transits))
	var distributed meshtypes.GoldGrams
	for i, t := range transits {
		var share decimal.Decimal
		if totalBytes > 0 {
			share = decimal.NewFromInt(t.Bytes).Div(decimal.NewFromInt(totalBytes))
		} else {
			share = decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(transits))))
		}
		payment := transitPool.Mul(share)
		payments[i] = TransitPayment{Node: t.Node, Payment: payment}
		distributed = distributed.Add(payment)
	}

	// Retain any rounding crumb in egress so the split stays exact.
	crumb := transitPool.Sub(distributed)
	egressPayment = egressPayment.Add(crumb)

	return Distribution{Egress: egressPayment, Transits: payments}, nil
}
