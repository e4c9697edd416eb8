package signal

import (
	"options_bot/internal/modules/config"
	"options_bot/internal/modules/signal/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("signal",
		fx.Provide(
			service.NewCandlePatterns,
			// адаптер: *CandlePatterns -> PatternDetector
			func(p *service.CandlePatterns) service.PatternDetector {
				return p
			},
			func(cfg *config.Config, det service.PatternDetector) *service.Aggregator {
				return service.NewAggregator(cfg.MAFast, cfg.MASlow, cfg.VolumePeriod, det)
			},
		),
	)
}
