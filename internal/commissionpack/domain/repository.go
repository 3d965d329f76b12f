package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mock/repository_mock.go -package=mock

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, pack *Pack) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Pack, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string, year int) (*Pack, error)
	// List returns packs in insertion order; year 0 lists every year.
	List(ctx context.Context, db *gorm.DB, year int) ([]Pack, error)
	UpdateActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, updatedAt time.Time) error
}
