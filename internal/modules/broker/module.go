package broker

import (
	"context"

	"go.uber.org/fx"

	"options_bot/internal/modules/broker/service"
)

func Module() fx.Option {
	return fx.Module("broker",
		fx.Provide(
			service.NewClient,
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					// ошибка коннекта фатальна: fx не поднимет приложение
					return c.Connect(ctx)
				},
			})
		}),
	)
}
