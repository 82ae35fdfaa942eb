package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/clinkerflow/clinkerflow/internal/config"
	"github.com/clinkerflow/clinkerflow/internal/observability"
	"github.com/clinkerflow/clinkerflow/internal/server"
	"github.com/clinkerflow/clinkerflow/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
