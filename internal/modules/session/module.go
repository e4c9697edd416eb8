package session

import (
	"context"

	"go.uber.org/fx"

	brokersvc "options_bot/internal/modules/broker/service"
	newssvc "options_bot/internal/modules/news/service"
	predictorsvc "options_bot/internal/modules/predictor/service"
	risksvc "options_bot/internal/modules/risk/service"
	"options_bot/internal/modules/session/service"
)

func Module() fx.Option {
	return fx.Module("session",
		fx.Provide(
			// адаптеры: конкретные сервисы -> контракты контроллера
			func(c *brokersvc.Client) service.Broker { return c },
			func(m *risksvc.Manager) service.RiskManager { return m },
			func(p *predictorsvc.Predictor) service.Predictor { return p },
			func(c *newssvc.Calendar) service.NewsGate { return c },
			service.NewController,
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Controller, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go c.Run(ctx)
					return nil
				},
			})
		}),
	)
}
