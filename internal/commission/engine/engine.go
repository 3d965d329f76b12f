// Package engine resolves commission tiers and simulates commission
// changes. Every function is pure: packs and amounts go in, values come out.
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	commissiondomain "github.com/smallbiznis/agencydesk/internal/commission/domain"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
)

var hundred = decimal.NewFromInt(100)

// ResolveTier maps a cumulative amount to its range in pack. Ranges are
// validated before any lookup.
//
// The selected range is the last one whose minimum is at or below amount.
// For whole currency units this equals the inclusive [min, max] match; a
// fractional amount between a max and the next min stays in the lower range.
func ResolveTier(pack packdomain.Pack, amount decimal.Decimal) (commissiondomain.Tier, error) {
	if err := packdomain.ValidateRanges(pack.Ranges); err != nil {
		return commissiondomain.Tier{}, err
	}
	if amount.IsNegative() {
		return commissiondomain.Tier{}, fmt.Errorf("%w: cumulative amount %s", commissiondomain.ErrNegativeAmount, amount)
	}
	return resolve(pack.Ranges, amount), nil
}

func resolve(ranges []packdomain.Range, amount decimal.Decimal) commissiondomain.Tier {
	idx := 0
	for i := range ranges {
		if ranges[i].MinAmount.GreaterThan(amount) {
			break
		}
		idx = i
	}

	r := ranges[idx]
	top := idx == len(ranges)-1

	tier := commissiondomain.Tier{
		RangeIndex:             idx,
		MinAmount:              r.MinAmount,
		MaxAmount:              r.MaxAmount,
		Percentage:             r.Percentage,
		AmountIntoRange:        amount.Sub(r.MinAmount),
		AmountRemainingInRange: decimal.Max(r.MaxAmount.Sub(amount), decimal.Zero),
		Progress:               progress(r, amount),
		IsTopRange:             top,
	}

	if !top {
		next := ranges[idx+1]
		pct := next.Percentage
		threshold := next.MinAmount
		tier.NextPercentage = &pct
		tier.NextThreshold = &threshold
	} else if r.IsUnbounded() {
		tier.AmountRemainingInRange = decimal.Zero
	}
	return tier
}

func progress(r packdomain.Range, amount decimal.Decimal) decimal.Decimal {
	span := r.MaxAmount.Sub(r.MinAmount)
	if !span.IsPositive() {
		return hundred
	}
	p := amount.Sub(r.MinAmount).Div(span).Mul(hundred)
	if p.IsNegative() {
		p = decimal.Zero
	}
	if p.GreaterThan(hundred) {
		p = hundred
	}
	return p.Round(2)
}

// Commission applies pct to the whole amount.
func Commission(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Shift(-2)
}

// Simulate projects the tier and commission after adding additional to
// current. The percentage of the projected tier applies to the entire
// projected total.
func Simulate(pack packdomain.Pack, current, additional decimal.Decimal) (commissiondomain.Simulation, error) {
	if err := packdomain.ValidateRanges(pack.Ranges); err != nil {
		return commissiondomain.Simulation{}, err
	}
	if current.IsNegative() {
		return commissiondomain.Simulation{}, fmt.Errorf("%w: current amount %s", commissiondomain.ErrNegativeAmount, current)
	}
	if additional.IsNegative() {
		return commissiondomain.Simulation{}, fmt.Errorf("%w: additional amount %s", commissiondomain.ErrNegativeAmount, additional)
	}

	currentTier := resolve(pack.Ranges, current)
	total := current.Add(additional)
	estimatedTier := resolve(pack.Ranges, total)

	currentCommission := Commission(current, currentTier.Percentage)
	estimatedCommission := Commission(total, estimatedTier.Percentage)

	return commissiondomain.Simulation{
		BaseAmount:          current,
		AdditionalAmount:    additional,
		EstimatedTotal:      total,
		CurrentPercentage:   currentTier.Percentage,
		EstimatedPercentage: estimatedTier.Percentage,
		CurrentCommission:   currentCommission,
		EstimatedCommission: estimatedCommission,
		IncreasedCommission: estimatedCommission.Sub(currentCommission),
		NextThreshold:       estimatedTier.NextThreshold,
		TierChanged:         estimatedTier.RangeIndex != currentTier.RangeIndex,
	}, nil
}
