package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agencydesk/internal/agentcommission"
	"github.com/smallbiznis/agencydesk/internal/authorization"
	"github.com/smallbiznis/agencydesk/internal/clock"
	"github.com/smallbiznis/agencydesk/internal/commission"
	"github.com/smallbiznis/agencydesk/internal/commissionpack"
	"github.com/smallbiznis/agencydesk/internal/config"
	"github.com/smallbiznis/agencydesk/internal/locker"
	"github.com/smallbiznis/agencydesk/internal/migration"
	"github.com/smallbiznis/agencydesk/internal/observability"
	"github.com/smallbiznis/agencydesk/internal/ratelimit"
	"github.com/smallbiznis/agencydesk/internal/revenue"
	"github.com/smallbiznis/agencydesk/internal/scheduler"
	"github.com/smallbiznis/agencydesk/internal/seed"
	"github.com/smallbiznis/agencydesk/internal/server"
	"github.com/smallbiznis/agencydesk/internal/statement"
	"github.com/smallbiznis/agencydesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		locker.Module,
		ratelimit.Module,
		authorization.Module,

		// Commission domains
		commissionpack.Module,
		commission.Module,
		revenue.Module,
		agentcommission.Module,
		statement.Module,
		scheduler.Module,
		seed.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
