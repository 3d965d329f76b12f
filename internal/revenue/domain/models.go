package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceSale               Source = "sale"
	SourceRental             Source = "rental"
	SourcePropertyManagement Source = "property_management"
)

func (s Source) Valid() bool {
	switch s {
	case SourceSale, SourceRental, SourcePropertyManagement:
		return true
	default:
		return false
	}
}

// RevenueRecord is one revenue event credited to an agent.
type RevenueRecord struct {
	ID              snowflake.ID    `json:"id" gorm:"primaryKey"`
	AgentID         string          `json:"agent_id" gorm:"type:text;not null;index:idx_revenue_records_agent_date"`
	Source          Source          `json:"source" gorm:"type:text;not null"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:numeric(20,2);not null"`
	OccurredAt      time.Time       `json:"occurred_at" gorm:"not null;index:idx_revenue_records_agent_date"`
	PropertyAddress *string         `json:"property_address,omitempty" gorm:"type:text"`
	ClientName      *string         `json:"client_name,omitempty" gorm:"type:text"`
	Notes           *string         `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at" gorm:"not null"`
}

func (RevenueRecord) TableName() string { return "revenue_records" }

// Totals holds revenue per source for one agent and period.
type Totals struct {
	Sales              decimal.Decimal `json:"sales_amount"`
	Rental             decimal.Decimal `json:"rental_amount"`
	PropertyManagement decimal.Decimal `json:"property_management_amount"`
	Total              decimal.Decimal `json:"total_amount"`
}
