package domain

import (
	"errors"

	"github.com/shopspring/decimal"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
)

var (
	ErrNegativeAmount   = errors.New("negative_amount")
	ErrInvalidRangeData = packdomain.ErrInvalidRangeData
	ErrPackNotFound     = packdomain.ErrPackNotFound
)

// Tier is the position of a cumulative amount within a pack.
type Tier struct {
	RangeIndex             int             `json:"range_index"`
	MinAmount              decimal.Decimal `json:"min_amount"`
	MaxAmount              decimal.Decimal `json:"max_amount"`
	Percentage             decimal.Decimal `json:"percentage"`
	AmountIntoRange        decimal.Decimal `json:"amount_into_range"`
	AmountRemainingInRange decimal.Decimal `json:"amount_remaining_in_range"`
	// Progress is the position inside the range, in [0,100].
	Progress       decimal.Decimal  `json:"progress"`
	NextPercentage *decimal.Decimal `json:"next_percentage,omitempty"`
	// NextThreshold is the minimum amount of the next range.
	NextThreshold *decimal.Decimal `json:"next_threshold,omitempty"`
	IsTopRange    bool             `json:"is_top_range"`
}

// Simulation projects commission for a hypothetical additional amount.
type Simulation struct {
	BaseAmount          decimal.Decimal  `json:"base_amount"`
	AdditionalAmount    decimal.Decimal  `json:"additional_amount"`
	EstimatedTotal      decimal.Decimal  `json:"estimated_total"`
	CurrentPercentage   decimal.Decimal  `json:"current_percentage"`
	EstimatedPercentage decimal.Decimal  `json:"estimated_percentage"`
	CurrentCommission   decimal.Decimal  `json:"current_commission"`
	EstimatedCommission decimal.Decimal  `json:"estimated_commission"`
	IncreasedCommission decimal.Decimal  `json:"increased_commission"`
	NextThreshold       *decimal.Decimal `json:"next_threshold,omitempty"`
	TierChanged         bool             `json:"tier_changed"`
}
