package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidRangeData marks a pack whose ranges are not a gapless,
// non-overlapping, ascending cover of [0, UnboundedAmount] with
// non-decreasing percentages.
var ErrInvalidRangeData = errors.New("invalid_range_data")

// Column scales of stored amounts and percentages.
const (
	AmountScale     int32 = 2
	PercentageScale int32 = 4
)

var (
	hundred = decimal.NewFromInt(100)
	// unitStep is the distance between one range's max and the next min.
	unitStep = decimal.NewFromInt(1)
)

// ValidateRanges checks ranges in the order given.
func ValidateRanges(ranges []Range) error {
	if len(ranges) == 0 {
		return fmt.Errorf("%w: pack has no ranges", ErrInvalidRangeData)
	}
	if !ranges[0].MinAmount.IsZero() {
		return fmt.Errorf("%w: first range starts at %s, want 0", ErrInvalidRangeData, ranges[0].MinAmount)
	}

	for i, r := range ranges {
		if !FitsScale(r.MinAmount, AmountScale) || !FitsScale(r.MaxAmount, AmountScale) {
			return fmt.Errorf("%w: range %d amounts allow at most %d decimals", ErrInvalidRangeData, i, AmountScale)
		}
		if !FitsScale(r.Percentage, PercentageScale) {
			return fmt.Errorf("%w: range %d percentage allows at most %d decimals", ErrInvalidRangeData, i, PercentageScale)
		}
		if r.MaxAmount.LessThan(r.MinAmount) {
			return fmt.Errorf("%w: range %d max %s below min %s", ErrInvalidRangeData, i, r.MaxAmount, r.MinAmount)
		}
		if r.Percentage.IsNegative() || r.Percentage.GreaterThan(hundred) {
			return fmt.Errorf("%w: range %d percentage %s outside [0,100]", ErrInvalidRangeData, i, r.Percentage)
		}
		if i == 0 {
			continue
		}

		prev := ranges[i-1]
		expectedMin := prev.MaxAmount.Add(unitStep)
		switch cmp := r.MinAmount.Cmp(expectedMin); {
		case cmp > 0:
			return fmt.Errorf("%w: gap between range %d (max %s) and range %d (min %s)", ErrInvalidRangeData, i-1, prev.MaxAmount, i, r.MinAmount)
		case cmp < 0:
			return fmt.Errorf("%w: range %d (min %s) overlaps range %d (max %s)", ErrInvalidRangeData, i, r.MinAmount, i-1, prev.MaxAmount)
		}
		if r.Percentage.LessThan(prev.Percentage) {
			return fmt.Errorf("%w: range %d percentage %s decreases from %s", ErrInvalidRangeData, i, r.Percentage, prev.Percentage)
		}
	}
	return nil
}

// FitsScale reports whether d has no significant digits beyond places
// decimals, so storing it does not round.
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// RangesFromInput turns request ranges into positioned ranges. Only the last
// input may omit its maximum; it becomes UnboundedAmount.
func RangesFromInput(inputs []RangeInput) ([]Range, error) {
	ranges := make([]Range, 0, len(inputs))
	for i, in := range inputs {
		maxAmount := UnboundedAmount
		if in.MaxAmount != nil {
			maxAmount = *in.MaxAmount
		} else if i != len(inputs)-1 {
			return nil, fmt.Errorf("%w: only the last range may omit max_amount", ErrInvalidRangeData)
		}
		ranges = append(ranges, Range{
			Position:   i,
			MinAmount:  in.MinAmount,
			MaxAmount:  maxAmount,
			Percentage: in.Percentage,
		})
	}
	return ranges, nil
}

// Validate checks the pack's range invariant.
func (p Pack) Validate() error {
	if err := ValidateRanges(p.Ranges); err != nil {
		return fmt.Errorf("pack %s: %w", p.Code, err)
	}
	return nil
}
