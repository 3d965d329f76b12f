package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() packdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, pack *packdomain.Pack) error {
	return db.WithContext(ctx).Create(pack).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*packdomain.Pack, error) {
	var items []packdomain.Pack
	err := withRanges(db.WithContext(ctx)).
		Where("id = ?", id).
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

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string, year int) (*packdomain.Pack, error) {
	var items []packdomain.Pack
	err := withRanges(db.WithContext(ctx)).
		Where("code = ? AND year = ?", code, year).
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

func (r *repo) List(ctx context.Context, db *gorm.DB, year int) ([]packdomain.Pack, error) {
	stmt := withRanges(db.WithContext(ctx))
	if year != 0 {
		stmt = stmt.Where("year = ?", year)
	}

	var items []packdomain.Pack
	if err := stmt.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE commission_packs SET is_active = ?, updated_at = ? WHERE id = ?`,
		active,
		updatedAt,
		id,
	).Error
}

func withRanges(db *gorm.DB) *gorm.DB {
	return db.Preload("Ranges", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	})
}
