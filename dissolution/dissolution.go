// Package dissolution distributes the residual value of abandoned
// packets to qualified nodes (spec.md §4.G).
package dissolution

import (
	"errors"

	"valuemesh/meshtypes"
)

// DissolutionTimeoutTicks is the minimum packet age for dissolution
// eligibility (spec.md §4.G).
const DissolutionTimeoutTicks = 5000

var (
	ErrNoQualifiedNodes  = errors.New("dissolution: no qualified nodes")
	ErrZeroResidualValue = errors.New("dissolution: residual value is zero")
	ErrNotEligible       = errors.New("dissolution: packet is not eligible")
)

// Recipient is one qualified node's share of a dissolved packet's residual.
type Recipient struct {
	Node  meshtypes.NodeId
	Share meshtypes.GoldGrams
}

// IsEligible reports whether a packet's total age has reached the
// dissolution timeout (spec.md §8: exactly 5000 ticks elapsed is
// eligible, one tick earlier is not).
func IsEligible(age int64) bool {
	return age >= DissolutionTimeoutTicks
}

// Distribute computes each qualified node's pro-rata share of residual V.
// Shard holders (nodes appearing in the packet's route history) carry
// weight 2; all other qualified nodes carry weight 1 (spec.md §4.G).
func Distribute(residual meshtypes.GoldGrams, qualified []meshtypes.NodeId, shardHolders map[meshtypes.NodeId]struct{}) ([]Recipient, error) {
	if len(qualified) == 0 {
		return nil, ErrNoQualifiedNodes
	}
	if residual.IsZero() {
		return nil, ErrZeroResidualValue
	}

	weights := make([]float64, len(qualified))
	var totalWeight float64
	for i, n := range qualified {
		w := 1.0
		if _, ok := shardHolders[n]; ok {
			w = 2.0
		}
		weights[i] = w
		totalWeight += w
	}

	recipients := make([]Recipient, len(qualified))
	var distributed meshtypes.GoldGrams
	for i, n := range qualified {
		share := residual.MulFloat(weights[i] / totalWeight)
		recipients[i] = Recipient{Node: n, Share: share}
		distributed = distributed.Add(share)
	}

	// Retain any rounding crumb on the first recipient so the total is exact.
	crumb := residual.Sub(distributed)
	if !crumb.IsZero() {
		recipients[0].Share = recipients[0].Share.Add(crumb)
	}

	return recipients, nil
}
