package solver

import (
	"go.uber.org/fx"

	"github.com/clinkerflow/clinkerflow/internal/solver/client"
)

var Module = fx.Module("solver",
	fx.Provide(client.New),
)
