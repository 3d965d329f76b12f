package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	ListActive(ctx context.Context, year int) ([]Response, error)
	SetActive(ctx context.Context, id string, active bool) (*Response, error)

	// GetPack returns the validated domain pack for tier resolution.
	GetPack(ctx context.Context, id snowflake.ID) (*Pack, error)
	// Catalog returns every pack of the year, validated.
	Catalog(ctx context.Context, year int) (*Catalog, error)
}

type CreateRequest struct {
	Name          string           `json:"name"`
	Year          int              `json:"year"`
	IsActive      *bool            `json:"is_active"`
	MonthlyFeeHT  *decimal.Decimal `json:"monthly_fee_ht"`
	MonthlyFeeTTC *decimal.Decimal `json:"monthly_fee_ttc"`
	ReferralRate  *decimal.Decimal `json:"referral_rate"`
	Ranges        []RangeInput     `json:"ranges"`
	Metadata      map[string]any   `json:"metadata"`
}

type RangeInput struct {
	MinAmount decimal.Decimal `json:"min_amount"`
	// MaxAmount nil marks the unbounded top range.
	MaxAmount  *decimal.Decimal `json:"max_amount"`
	Percentage decimal.Decimal  `json:"percentage"`
}

type Response struct {
	ID            string           `json:"id"`
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	Year          int              `json:"year"`
	IsActive      bool             `json:"is_active"`
	MonthlyFeeHT  *decimal.Decimal `json:"monthly_fee_ht,omitempty"`
	MonthlyFeeTTC *decimal.Decimal `json:"monthly_fee_ttc,omitempty"`
	ReferralRate  *decimal.Decimal `json:"referral_rate,omitempty"`
	Ranges        []RangeResponse  `json:"ranges"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type RangeResponse struct {
	MinAmount decimal.Decimal `json:"min_amount"`
	// MaxAmount is omitted for the unbounded top range.
	MaxAmount  *decimal.Decimal `json:"max_amount,omitempty"`
	Percentage decimal.Decimal  `json:"percentage"`
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidYear         = errors.New("invalid_year")
	ErrInvalidMonthlyFee   = errors.New("invalid_monthly_fee")
	ErrInvalidReferralRate = errors.New("invalid_referral_rate")
	ErrDuplicatePack       = errors.New("duplicate_pack")
)
