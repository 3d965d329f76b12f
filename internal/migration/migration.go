package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	agentdomain "github.com/smallbiznis/agencydesk/internal/agentcommission/domain"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
	"github.com/smallbiznis/agencydesk/internal/config"
	revenuedomain "github.com/smallbiznis/agencydesk/internal/revenue/domain"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// Run applies the versioned SQL migrations on postgres and falls back to
// gorm AutoMigrate for the other dialects.
func Run(conn *gorm.DB, cfg config.Config) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if cfg.DBType != "postgres" {
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema from the gorm models.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&packdomain.Pack{},
		&packdomain.Range{},
		&revenuedomain.RevenueRecord{},
		&agentdomain.AgentCommission{},
	)
}
