package predictor

import (
	"go.uber.org/fx"

	"options_bot/internal/modules/config"
	journalsvc "options_bot/internal/modules/journal/service"
	"options_bot/internal/modules/predictor/service"
)

func Module() fx.Option {
	return fx.Module("predictor",
		fx.Provide(
			func(cfg *config.Config, store journalsvc.Store) *service.Predictor {
				return service.New(store, cfg.Predictor.Threshold, cfg.Predictor.MinSamples, cfg.Predictor.LookbackDays)
			},
		),
	)
}
