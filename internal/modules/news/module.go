package news

import (
	"go.uber.org/fx"

	"options_bot/internal/modules/news/service"
)

func Module() fx.Option {
	return fx.Module("news",
		fx.Provide(
			service.NewCalendar,
		),
	)
}
