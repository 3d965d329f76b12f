package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	commissiondomain "github.com/smallbiznis/agencydesk/internal/commission/domain"
	revenuedomain "github.com/smallbiznis/agencydesk/internal/revenue/domain"
)

// AgentCommission assigns a pack to an agent for a period and caches the
// figures derived from the agent's revenue in that period.
type AgentCommission struct {
	ID                       snowflake.ID    `json:"id" gorm:"primaryKey"`
	AgentID                  string          `json:"agent_id" gorm:"type:text;not null;uniqueIndex"`
	PackID                   snowflake.ID    `json:"pack_id" gorm:"not null;index"`
	CurrentPercentage        decimal.Decimal `json:"current_percentage" gorm:"type:numeric(7,4);not null"`
	SalesAmount              decimal.Decimal `json:"sales_amount" gorm:"type:numeric(20,2);not null"`
	RentalAmount             decimal.Decimal `json:"rental_amount" gorm:"type:numeric(20,2);not null"`
	PropertyManagementAmount decimal.Decimal `json:"property_management_amount" gorm:"type:numeric(20,2);not null"`
	TotalAmount              decimal.Decimal `json:"total_amount" gorm:"type:numeric(20,2);not null"`
	StartDate                time.Time       `json:"start_date" gorm:"not null"`
	EndDate                  time.Time       `json:"end_date" gorm:"not null"`
	RecomputedAt             *time.Time      `json:"recomputed_at,omitempty"`
	CreatedAt                time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt                time.Time       `json:"updated_at" gorm:"not null"`
}

func (AgentCommission) TableName() string { return "agent_commissions" }

// Derive overwrites every derived field of ac from totals and the tier
// resolved for totals.Total. Nothing else may write those fields.
func Derive(ac AgentCommission, totals revenuedomain.Totals, tier commissiondomain.Tier, now time.Time) AgentCommission {
	ac.SalesAmount = totals.Sales
	ac.RentalAmount = totals.Rental
	ac.PropertyManagementAmount = totals.PropertyManagement
	ac.TotalAmount = totals.Sales.Add(totals.Rental).Add(totals.PropertyManagement)
	ac.CurrentPercentage = tier.Percentage
	ac.RecomputedAt = &now
	ac.UpdatedAt = now
	return ac
}
