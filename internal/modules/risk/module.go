package risk

import (
	"go.uber.org/fx"

	"options_bot/internal/modules/risk/service"
)

func Module() fx.Option {
	return fx.Module("risk",
		fx.Provide(
			service.NewManager,
		),
	)
}
