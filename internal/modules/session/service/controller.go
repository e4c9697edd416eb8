package service

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"options_bot/internal/helper"
	"options_bot/internal/models"
	"options_bot/internal/modules/config"
	healthsvc "options_bot/internal/modules/health/service"
	signalsvc "options_bot/internal/modules/signal/service"
	"options_bot/internal/notify"
	"options_bot/pkg/logger"
)

// Интерфейсы коллабораторов цикла. Контроллер знает только контракты,
// живые реализации подсовывает fx, тестам хватает фейков.

type Broker interface {
	GetCandles(ctx context.Context, instrument string, timeframe time.Duration, count int) (models.CandleWindow, error)
	GetPayouts(ctx context.Context) (map[string]float64, error)
	Buy(ctx context.Context, amount float64, instrument string, direction models.Direction, expiry time.Duration) (string, error)
	AwaitOutcome(ctx context.Context, orderID string) (bool, error)
}

type RiskManager interface {
	CanTrade(instrument string) bool
	NextStake(instrument string, highChance bool, payout float64) float64
	RegisterOutcome(instrument string, win bool)
}

type Predictor interface {
	CheckAndTrainDaily(ctx context.Context)
	PredictHighChance(f models.FeatureVector) bool
	LogOutcome(f models.FeatureVector, decision models.TradeDecision, win bool)
}

type NewsGate interface {
	HasImminentHighImpactEvent(ctx context.Context) bool
}

// Controller — машина состояний сессии. Один цикл: новостной гейт →
// дневной ролловер → дневной стоп-вин → скан корзины инструментов.
// Весь цикл живёт в одной горутине, SessionState трогает только она.
type Controller struct {
	cfg *config.Config

	broker    Broker
	risk      RiskManager
	predictor Predictor
	news      NewsGate
	agg       *signalsvc.Aggregator
	n         notify.Notifier
	health    *healthsvc.State

	now   func() time.Time
	state *models.SessionState
}

func NewController(
	cfg *config.Config,
	broker Broker,
	risk RiskManager,
	predictor Predictor,
	news NewsGate,
	agg *signalsvc.Aggregator,
	n notify.Notifier,
	health *healthsvc.State,
) *Controller {
	return &Controller{
		cfg:       cfg,
		broker:    broker,
		risk:      risk,
		predictor: predictor,
		news:      news,
		agg:       agg,
		n:         n,
		health:    health,
		now:       time.Now,
		state:     &models.SessionState{},
	}
}

// Run — бесконечный цикл сессии. Завершается только отменой контекста;
// каждая пауза (новости, дневной стоп, базовый сон) её уважает.
func (c *Controller) Run(ctx context.Context) {
	for {
		phase := c.RunCycle(ctx)

		var pause time.Duration
		switch phase {
		case models.PhaseNewsPause:
			pause = c.cfg.NewsPause()
		case models.PhaseDailyStop:
			pause = c.cfg.DailyStopPause()
		default:
			pause = c.cfg.BaseCycleSleep()
		}

		if !sleep(ctx, pause) {
			logger.Info("session loop stopped")
			return
		}
	}
}

// RunCycle прогоняет один цикл и возвращает фазу, определяющую паузу.
// Порядок проверок фиксированный: новости → ролловер → кап → скан.
func (c *Controller) RunCycle(ctx context.Context) models.SessionPhase {
	span := opentracing.GlobalTracer().StartSpan("session.cycle")
	defer span.Finish()

	c.predictor.CheckAndTrainDaily(ctx)

	// 1. новостная пауза: состояние сессии не трогаем вообще
	if c.news.HasImminentHighImpactEvent(ctx) {
		logger.Info("high impact news nearby, pausing")
		span.SetTag("phase", models.PhaseNewsPause)
		return models.PhaseNewsPause
	}

	// 2. смена календарного дня сбрасывает дневной счётчик побед
	today := helper.DateOnly(c.now())
	if c.state.RolloverIfNewDay(today) {
		logger.Info("daily rollover: wins reset, date=%s", today.Format("2006-01-02"))
	}

	// 3. дневной кап побед
	if c.state.DailyWins >= c.cfg.DailyWinCap {
		logger.Info("daily win cap reached (%d), pausing", c.state.DailyWins)
		span.SetTag("phase", models.PhaseDailyStop)
		return models.PhaseDailyStop
	}

	// 4. скан корзины: выплаты одним запросом на весь цикл
	payouts, err := c.broker.GetPayouts(ctx)
	if err != nil {
		logger.Error("payout fetch failed, skipping scan: %v", err)
		span.SetTag("phase", models.PhaseRunning)
		c.health.TouchCycle(c.now())
		return models.PhaseRunning
	}

	for _, instrument := range c.cfg.Instruments {
		c.scanInstrument(ctx, span, instrument, payouts[instrument])
		select {
		case <-ctx.Done():
			return models.PhaseRunning
		default:
		}
	}

	span.SetTag("phase", models.PhaseRunning)
	c.health.TouchCycle(c.now())
	return models.PhaseRunning
}

// scanInstrument — оценка одного инструмента. Любая ошибка здесь
// локальна: залогировали, пропустили, пошли к следующему.
func (c *Controller) scanInstrument(ctx context.Context, parent opentracing.Span, instrument string, payout float64) {
	// фильтр по выплате ДО похода за свечами
	if payout < c.cfg.MinPayout || payout > c.cfg.MaxPayout {
		return
	}

	timeframe := time.Duration(c.cfg.TimeframeMainSeconds) * time.Second
	win, err := c.broker.GetCandles(ctx, instrument, timeframe, c.cfg.CandleCount)
	if err != nil {
		logger.Error("[%s] candle fetch failed: %v", instrument, err)
		return
	}

	features, direction := c.agg.Evaluate(win, payout)
	if direction == models.DirectionNone {
		return
	}
	if !c.risk.CanTrade(instrument) {
		return
	}
	if !c.predictor.PredictHighChance(features) {
		return
	}

	stake := c.risk.NextStake(instrument, true, payout)
	if stake <= 0 {
		return
	}

	decision := models.TradeDecision{
		Instrument: instrument,
		Direction:  direction,
		Stake:      stake,
		Features:   features,
	}
	c.execute(ctx, parent, decision)
}

func (c *Controller) execute(ctx context.Context, parent opentracing.Span, d models.TradeDecision) {
	span := opentracing.GlobalTracer().StartSpan("session.trade",
		opentracing.ChildOf(parent.Context()))
	span.SetTag("instrument", d.Instrument)
	span.SetTag("direction", d.Direction)
	defer span.Finish()

	logger.Info("[%s] entering %s stake=%.2f pattern=%s vol=%.2f",
		d.Instrument, d.Direction, d.Stake, d.Features.Pattern, d.Features.VolumeRatio)

	orderID, err := c.broker.Buy(ctx, d.Stake, d.Instrument, d.Direction, c.cfg.Expiry())
	if err != nil {
		logger.Error("[%s] order failed: %v", d.Instrument, err)
		return
	}
	c.n.Sendf("📈 %s %s stake=%.2f payout=%.0f%%",
		d.Instrument, d.Direction, d.Stake, d.Features.Payout*100)

	win, err := c.broker.AwaitOutcome(ctx, orderID)
	if err != nil {
		// исход не дождались — ставка для сессии потеряна
		logger.Error("[%s] outcome wait failed, counting as loss: %v", d.Instrument, err)
		win = false
	}

	c.risk.RegisterOutcome(d.Instrument, win)
	c.predictor.LogOutcome(d.Features, d, win)

	if win {
		c.state.DailyWins++
		c.n.Sendf("✅ %s win (%d/%d today)", d.Instrument, c.state.DailyWins, c.cfg.DailyWinCap)
	} else {
		c.n.Sendf("❌ %s loss", d.Instrument)
	}
}

// sleep ждёт d или отмену контекста; false = пора выходить.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
