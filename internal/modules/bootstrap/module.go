package bootstrap

import (
	"context"
	"log"

	"go.uber.org/fx"

	bootstrap "options_bot/internal/modules/bootstrap/service"
	brokersvc "options_bot/internal/modules/broker/service"
)

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			func(c *brokersvc.Client) bootstrap.PayoutSource { return c },
			bootstrap.NewPreflight,
		),
		fx.Invoke(func(lc fx.Lifecycle, p *bootstrap.Preflight, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						if err := p.Run(ctx); err != nil {
							log.Printf("[BOOT] preflight error: %v", err)
							return
						}
						log.Printf("[BOOT] preflight done")
					}()
					return nil
				},
			})
		}),
	)
}
