package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/accessgrant"
	"github.com/repomart/repomart/internal/account"
	"github.com/repomart/repomart/internal/catalog"
	"github.com/repomart/repomart/internal/config"
	"github.com/repomart/repomart/internal/gateway"
	"github.com/repomart/repomart/internal/migration"
	"github.com/repomart/repomart/internal/observability"
	"github.com/repomart/repomart/internal/order"
	"github.com/repomart/repomart/internal/outbox"
	"github.com/repomart/repomart/internal/ratelimit"
	"github.com/repomart/repomart/internal/salesaggregate"
	"github.com/repomart/repomart/internal/server"
	"github.com/repomart/repomart/internal/settlement"
	"github.com/repomart/repomart/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		account.Module,
		catalog.Module,
		gateway.Module,
		order.Module,
		accessgrant.Module,
		salesaggregate.Module,
		settlement.Module,
		outbox.Module,
		ratelimit.Module,

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
