package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByAgent(ctx context.Context, db *gorm.DB, agentID string) (*AgentCommission, error)
	Insert(ctx context.Context, db *gorm.DB, ac *AgentCommission) error
	Update(ctx context.Context, db *gorm.DB, ac *AgentCommission) error
	// ListStale pages through assignments not recomputed since before,
	// ordered by id and starting after afterID.
	ListStale(ctx context.Context, db *gorm.DB, before time.Time, afterID snowflake.ID, limit int) ([]AgentCommission, error)
}
