package domain

import (
	"context"

	"github.com/shopspring/decimal"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
)

type Service interface {
	// Resolve looks the pack up by id and resolves amount against it.
	Resolve(ctx context.Context, packID string, amount decimal.Decimal) (*ResolveResponse, error)
	Simulate(ctx context.Context, packID string, current, additional decimal.Decimal) (*SimulateResponse, error)

	// ResolvePack and SimulatePack work on a pack the caller already holds.
	ResolvePack(ctx context.Context, pack packdomain.Pack, amount decimal.Decimal) (Tier, error)
	SimulatePack(ctx context.Context, pack packdomain.Pack, current, additional decimal.Decimal) (Simulation, error)
}

type ResolveRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type SimulateRequest struct {
	CurrentAmount    decimal.Decimal `json:"current_amount"`
	AdditionalAmount decimal.Decimal `json:"additional_amount"`
}

type ResolveResponse struct {
	PackID     string          `json:"pack_id"`
	PackCode   string          `json:"pack_code"`
	Amount     decimal.Decimal `json:"amount"`
	Commission decimal.Decimal `json:"commission"`
	Tier       Tier            `json:"tier"`
}

type SimulateResponse struct {
	PackID     string     `json:"pack_id"`
	PackCode   string     `json:"pack_code"`
	Simulation Simulation `json:"simulation"`
}
