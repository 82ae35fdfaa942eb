package network

import (
	"go.uber.org/fx"

	"github.com/clinkerflow/clinkerflow/internal/network/catalog"
)

var Module = fx.Module("network",
	fx.Provide(catalog.New),
)
