package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *RevenueRecord) error
	// ListByAgent returns records with from <= occurred_at <= to, oldest
	// first. A zero bound is open.
	ListByAgent(ctx context.Context, db *gorm.DB, agentID string, from, to time.Time) ([]RevenueRecord, error)
}
