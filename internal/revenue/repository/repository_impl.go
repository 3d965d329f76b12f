package repository

import (
	"context"
	"time"

	revenuedomain "github.com/smallbiznis/agencydesk/internal/revenue/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() revenuedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *revenuedomain.RevenueRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) ListByAgent(ctx context.Context, db *gorm.DB, agentID string, from, to time.Time) ([]revenuedomain.RevenueRecord, error) {
	stmt := db.WithContext(ctx).Where("agent_id = ?", agentID)
	if !from.IsZero() {
		stmt = stmt.Where("occurred_at >= ?", from)
	}
	if !to.IsZero() {
		stmt = stmt.Where("occurred_at <= ?", to)
	}

	var items []revenuedomain.RevenueRecord
	if err := stmt.Order("occurred_at ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
