package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academia/internal/automation"
	"github.com/smallbiznis/academia/internal/clock"
	"github.com/smallbiznis/academia/internal/config"
	"github.com/smallbiznis/academia/internal/course"
	"github.com/smallbiznis/academia/internal/logger"
	"github.com/smallbiznis/academia/internal/migration"
	"github.com/smallbiznis/academia/internal/notification"
	"github.com/smallbiznis/academia/internal/organization"
	"github.com/smallbiznis/academia/internal/providers/email"
	"github.com/smallbiznis/academia/internal/scanner"
	"github.com/smallbiznis/academia/internal/server"
	"github.com/smallbiznis/academia/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		email.Module,
		organization.Module,
		course.Module,
		automation.Module,
		notification.Module,
		scanner.Module,

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
