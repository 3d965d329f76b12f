package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	commissiondomain "github.com/smallbiznis/agencydesk/internal/commission/domain"
)

type Service interface {
	Assign(ctx context.Context, agentID string, req AssignRequest) (*Response, error)
	Get(ctx context.Context, agentID string) (*Response, error)
	// Recompute re-derives the cached figures from stored revenue while
	// holding the agent's lock.
	Recompute(ctx context.Context, agentID string) (*Response, error)
	Simulate(ctx context.Context, agentID string, additional decimal.Decimal) (*SimulateResponse, error)
}

type AssignRequest struct {
	PackID string `json:"pack_id"`
	// Dates default to the pack's fiscal year.
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type SimulateRequest struct {
	AdditionalAmount decimal.Decimal `json:"additional_amount"`
}

type Response struct {
	ID                       string                `json:"id"`
	AgentID                  string                `json:"agent_id"`
	PackID                   string                `json:"pack_id"`
	PackCode                 string                `json:"pack_code"`
	PackName                 string                `json:"pack_name"`
	CurrentPercentage        decimal.Decimal       `json:"current_percentage"`
	SalesAmount              decimal.Decimal       `json:"sales_amount"`
	RentalAmount             decimal.Decimal       `json:"rental_amount"`
	PropertyManagementAmount decimal.Decimal       `json:"property_management_amount"`
	TotalAmount              decimal.Decimal       `json:"total_amount"`
	CurrentCommission        decimal.Decimal       `json:"current_commission"`
	StartDate                time.Time             `json:"start_date"`
	EndDate                  time.Time             `json:"end_date"`
	RecomputedAt             *time.Time            `json:"recomputed_at,omitempty"`
	Tier                     commissiondomain.Tier `json:"tier"`
	UpdatedAt                time.Time             `json:"updated_at"`
}

type SimulateResponse struct {
	AgentID    string                      `json:"agent_id"`
	PackID     string                      `json:"pack_id"`
	PackCode   string                      `json:"pack_code"`
	Simulation commissiondomain.Simulation `json:"simulation"`
}

var (
	ErrInvalidAgentID     = errors.New("invalid_agent_id")
	ErrInvalidPackID      = errors.New("invalid_pack_id")
	ErrInvalidPeriod      = errors.New("invalid_period")
	ErrPackInactive       = errors.New("pack_inactive")
	ErrAssignmentNotFound = errors.New("assignment_not_found")
)
