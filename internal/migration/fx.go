package migration

import (
	"github.com/smallbiznis/agencydesk/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		return Run(conn, cfg)
	}),
)
