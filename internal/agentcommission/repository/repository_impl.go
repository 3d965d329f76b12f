package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	agentdomain "github.com/smallbiznis/agencydesk/internal/agentcommission/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() agentdomain.Repository {
	return &repo{}
}

func (r *repo) FindByAgent(ctx context.Context, db *gorm.DB, agentID string) (*agentdomain.AgentCommission, error) {
	var items []agentdomain.AgentCommission
	err := db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, ac *agentdomain.AgentCommission) error {
	return db.WithContext(ctx).Create(ac).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, ac *agentdomain.AgentCommission) error {
	return db.WithContext(ctx).
		Model(&agentdomain.AgentCommission{}).
		Where("id = ?", ac.ID).
		Updates(map[string]any{
			"pack_id":                    ac.PackID,
			"current_percentage":         ac.CurrentPercentage,
			"sales_amount":               ac.SalesAmount,
			"rental_amount":              ac.RentalAmount,
			"property_management_amount": ac.PropertyManagementAmount,
			"total_amount":               ac.TotalAmount,
			"start_date":                 ac.StartDate,
			"end_date":                   ac.EndDate,
			"recomputed_at":              ac.RecomputedAt,
			"updated_at":                 ac.UpdatedAt,
		}).Error
}

func (r *repo) ListStale(ctx context.Context, db *gorm.DB, before time.Time, afterID snowflake.ID, limit int) ([]agentdomain.AgentCommission, error) {
	var items []agentdomain.AgentCommission
	err := db.WithContext(ctx).
		Where("id > ?", afterID).
		Where("recomputed_at IS NULL OR recomputed_at < ?", before).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
