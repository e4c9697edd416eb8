package service

import (
	"context"

	"options_bot/internal/modules/config"
	healthsvc "options_bot/internal/modules/health/service"
	"options_bot/internal/notify"
	"options_bot/pkg/logger"
)

type PayoutSource interface {
	GetPayouts(ctx context.Context) (map[string]float64, error)
}

// Preflight — стартовая сверка: какие из настроенных инструментов площадка
// вообще открыла. Предупреждает о мёртвых, сообщает о старте сессии,
// поднимает readiness. Торговых решений тут нет.
type Preflight struct {
	cfg    *config.Config
	broker PayoutSource
	n      notify.Notifier
	health *healthsvc.State
}

func NewPreflight(cfg *config.Config, broker PayoutSource, n notify.Notifier, health *healthsvc.State) *Preflight {
	return &Preflight{cfg: cfg, broker: broker, n: n, health: health}
}

func (p *Preflight) Run(ctx context.Context) error {
	payouts, err := p.broker.GetPayouts(ctx)
	if err != nil {
		return err
	}

	tradable := 0
	for _, instrument := range p.cfg.Instruments {
		payout, ok := payouts[instrument]
		if !ok {
			logger.Warn("[BOOT] %s is not listed as open on the venue", instrument)
			continue
		}
		if payout < p.cfg.MinPayout || payout > p.cfg.MaxPayout {
			logger.Warn("[BOOT] %s payout %.2f is outside band [%.2f, %.2f]",
				instrument, payout, p.cfg.MinPayout, p.cfg.MaxPayout)
			continue
		}
		tradable++
	}

	p.n.Sendf("🚀 Session started: %d/%d instruments tradable, account=%s",
		tradable, len(p.cfg.Instruments), p.cfg.AccountType)
	p.health.SetReady(true)
	return nil
}
