package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	// Record stores a revenue record and recomputes the agent's commission.
	Record(ctx context.Context, agentID string, req RecordRequest) (*Response, error)
	List(ctx context.Context, agentID string, from, to time.Time) ([]Response, error)
	Totals(ctx context.Context, agentID string, from, to time.Time) (Totals, error)
}

type RecordRequest struct {
	Source          Source          `json:"source"`
	Amount          decimal.Decimal `json:"amount"`
	OccurredAt      *time.Time      `json:"occurred_at"`
	PropertyAddress string          `json:"property_address"`
	ClientName      string          `json:"client_name"`
	Notes           string          `json:"notes"`
}

type Response struct {
	ID              string          `json:"id"`
	AgentID         string          `json:"agent_id"`
	Source          Source          `json:"source"`
	Amount          decimal.Decimal `json:"amount"`
	OccurredAt      time.Time       `json:"occurred_at"`
	PropertyAddress *string         `json:"property_address,omitempty"`
	ClientName      *string         `json:"client_name,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	// CommissionRecomputed is false when no assignment exists for the agent
	// or the recompute failed; the record itself is stored either way.
	CommissionRecomputed bool `json:"commission_recomputed"`
}

var (
	ErrInvalidAgentID = errors.New("invalid_agent_id")
	ErrInvalidSource  = errors.New("invalid_source")
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrInvalidPeriod  = errors.New("invalid_period")
)

// amountScale matches the numeric(20,2) amount column.
const amountScale int32 = 2

// ValidAmount reports whether amount is non-negative and stores without rounding.
func ValidAmount(amount decimal.Decimal) bool {
	return !amount.IsNegative() && amount.Equal(amount.Truncate(amountScale))
}
