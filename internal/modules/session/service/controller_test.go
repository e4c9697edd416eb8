package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options_bot/internal/models"
	"options_bot/internal/modules/config"
	healthsvc "options_bot/internal/modules/health/service"
	signalsvc "options_bot/internal/modules/signal/service"
	"options_bot/internal/notify"
	"options_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

// --- фейки коллабораторов ---

type fakeBroker struct {
	payouts    map[string]float64
	payoutErr  error
	windows    map[string]models.CandleWindow
	fetchErr   map[string]error
	buyErr     error
	outcome    bool
	outcomeErr error

	payoutCalls int
	candleCalls map[string]int
	buyCalls    []string
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		payouts:     map[string]float64{},
		windows:     map[string]models.CandleWindow{},
		fetchErr:    map[string]error{},
		candleCalls: map[string]int{},
	}
}

func (b *fakeBroker) GetPayouts(context.Context) (map[string]float64, error) {
	b.payoutCalls++
	if b.payoutErr != nil {
		return nil, b.payoutErr
	}
	return b.payouts, nil
}

func (b *fakeBroker) GetCandles(_ context.Context, instrument string, _ time.Duration, _ int) (models.CandleWindow, error) {
	b.candleCalls[instrument]++
	if err := b.fetchErr[instrument]; err != nil {
		return nil, err
	}
	return b.windows[instrument], nil
}

func (b *fakeBroker) Buy(_ context.Context, _ float64, instrument string, _ models.Direction, _ time.Duration) (string, error) {
	if b.buyErr != nil {
		return "", b.buyErr
	}
	b.buyCalls = append(b.buyCalls, instrument)
	return "42", nil
}

func (b *fakeBroker) AwaitOutcome(context.Context, string) (bool, error) {
	return b.outcome, b.outcomeErr
}

type fakeRisk struct {
	canTrade bool
	stake    float64
	outcomes []bool
}

func (r *fakeRisk) CanTrade(string) bool { return r.canTrade }
func (r *fakeRisk) NextStake(string, bool, float64) float64 {
	return r.stake
}
func (r *fakeRisk) RegisterOutcome(_ string, win bool) { r.outcomes = append(r.outcomes, win) }

type fakePredictor struct {
	highChance bool
	trainCalls int
	logged     []bool
}

func (p *fakePredictor) CheckAndTrainDaily(context.Context) { p.trainCalls++ }

func (p *fakePredictor) PredictHighChance(models.FeatureVector) bool { return p.highChance }
func (p *fakePredictor) LogOutcome(_ models.FeatureVector, _ models.TradeDecision, win bool) {
	p.logged = append(p.logged, win)
}

type fakeNews struct{ imminent bool }

func (n *fakeNews) HasImminentHighImpactEvent(context.Context) bool { return n.imminent }

// --- сборка ---

func sessionConfig(instruments ...string) *config.Config {
	cfg := &config.Config{
		Instruments:           instruments,
		TimeframeMainSeconds:  60,
		CandleCount:           100,
		MinPayout:             0.70,
		MaxPayout:             0.95,
		MAFast:                5,
		MASlow:                20,
		VolumePeriod:          20,
		DailyWinCap:           2,
		BaseCycleSleepSeconds: 1,
		ExpiryMinutes:         1,
		NewsPauseSeconds:      1,
		DailyStopPauseSeconds: 1,
	}
	return cfg
}

type fixture struct {
	c      *Controller
	broker *fakeBroker
	risk   *fakeRisk
	pred   *fakePredictor
	news   *fakeNews
	clock  *time.Time
}

func newFixture(cfg *config.Config) *fixture {
	broker := newFakeBroker()
	risk := &fakeRisk{canTrade: true, stake: 2}
	pred := &fakePredictor{highChance: true}
	news := &fakeNews{}
	agg := signalsvc.NewAggregator(cfg.MAFast, cfg.MASlow, cfg.VolumePeriod, signalsvc.NewCandlePatterns())

	c := NewController(cfg, broker, risk, pred, news, agg, notify.NewStdout(), healthsvc.NewState())
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := &fixture{c: c, broker: broker, risk: risk, pred: pred, news: news, clock: &now}
	c.now = func() time.Time { return *f.clock }
	return f
}

// risingWindow — 60 свечей с ростом close 100→160: тренд up, последний
// close выше всех high окна (включая собственный) — breakout_up, объём
// последней свечи втрое выше среднего.
func risingWindow() models.CandleWindow {
	win := make(models.CandleWindow, 0, 60)
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		close := 100.0 + float64(i)*60.0/59.0
		high := close + 0.1
		vol := 100.0
		if i == 59 {
			high = close - 0.1 // новый экстремум ставит сам close
			vol = 300
		}
		win = append(win, models.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   close - 0.5,
			High:   high,
			Low:    close - 1,
			Close:  close,
			Volume: vol,
		})
	}
	return win
}

// flatWindow — константный close: тренд flat, пробоя нет.
func flatWindow() models.CandleWindow {
	win := make(models.CandleWindow, 0, 60)
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		win = append(win, models.Candle{
			Time: base.Add(time.Duration(i) * time.Minute),
			Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 100,
		})
	}
	return win
}

// --- тесты ---

func TestNewsPauseSkipsScanAndState(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	f.news.imminent = true
	f.c.state.DailyWins = 1
	prevDate := f.c.state.LastTradeDate

	phase := f.c.RunCycle(context.Background())

	assert.Equal(t, models.PhaseNewsPause, phase)
	assert.Equal(t, 1, f.c.state.DailyWins)
	assert.Equal(t, prevDate, f.c.state.LastTradeDate)
	assert.Zero(t, f.broker.payoutCalls)
}

func TestDailyRolloverResetsWinsOnce(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	f.c.state.DailyWins = 2
	f.c.state.LastTradeDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	f.c.RunCycle(context.Background())

	assert.Equal(t, 0, f.c.state.DailyWins)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), f.c.state.LastTradeDate)
}

func TestLastTradeDateUpdatedWithoutTrades(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	// выплат нет — скан пустой, но дата цикла фиксируется
	f.c.RunCycle(context.Background())

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), f.c.state.LastTradeDate)
}

func TestWinningCycleIncrementsDailyWins(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	f.broker.payouts["EURUSD"] = 0.85
	f.broker.windows["EURUSD"] = risingWindow()
	f.broker.outcome = true

	phase := f.c.RunCycle(context.Background())

	assert.Equal(t, models.PhaseRunning, phase)
	assert.Equal(t, []string{"EURUSD"}, f.broker.buyCalls)
	assert.Equal(t, 1, f.c.state.DailyWins)
	assert.Equal(t, []bool{true}, f.risk.outcomes)
	assert.Equal(t, []bool{true}, f.pred.logged)
}

func TestDailyStopAfterCapWithoutScan(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	f.broker.payouts["EURUSD"] = 0.85
	f.broker.windows["EURUSD"] = risingWindow()
	f.broker.outcome = true

	// кап = 2: две победы подряд
	require.Equal(t, models.PhaseRunning, f.c.RunCycle(context.Background()))
	require.Equal(t, models.PhaseRunning, f.c.RunCycle(context.Background()))
	require.Equal(t, 2, f.c.state.DailyWins)

	scans := f.broker.payoutCalls
	phase := f.c.RunCycle(context.Background())

	assert.Equal(t, models.PhaseDailyStop, phase)
	assert.Equal(t, scans, f.broker.payoutCalls) // скан не начинался
	assert.Equal(t, 2, f.broker.candleCalls["EURUSD"])
}

func TestNextDayClearsDailyStop(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	f.broker.payouts["EURUSD"] = 0.85
	f.broker.windows["EURUSD"] = risingWindow()
	f.broker.outcome = true

	f.c.RunCycle(context.Background())
	f.c.RunCycle(context.Background())
	require.Equal(t, models.PhaseDailyStop, f.c.RunCycle(context.Background()))

	*f.clock = f.clock.Add(24 * time.Hour)
	assert.Equal(t, models.PhaseRunning, f.c.RunCycle(context.Background()))
	assert.Equal(t, 1, f.c.state.DailyWins) // новый день начался с нуля и выиграл
}

func TestPayoutOutsideBandSkipsBeforeCandleFetch(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	f.broker.payouts["EURUSD"] = 0.65
	f.broker.windows["EURUSD"] = risingWindow()

	f.c.RunCycle(context.Background())

	assert.Zero(t, f.broker.candleCalls["EURUSD"])
	assert.Empty(t, f.broker.buyCalls)
}

func TestNoDirectionMeansNoTrade(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	f.broker.payouts["EURUSD"] = 0.85
	f.broker.windows["EURUSD"] = flatWindow()

	f.c.RunCycle(context.Background())

	assert.Equal(t, 1, f.broker.candleCalls["EURUSD"])
	assert.Empty(t, f.broker.buyCalls)
}

func TestRiskVetoBlocksTrade(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	f.broker.payouts["EURUSD"] = 0.85
	f.broker.windows["EURUSD"] = risingWindow()
	f.risk.canTrade = false

	f.c.RunCycle(context.Background())

	assert.Empty(t, f.broker.buyCalls)
}

func TestPredictorVetoBlocksTrade(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	f.broker.payouts["EURUSD"] = 0.85
	f.broker.windows["EURUSD"] = risingWindow()
	f.pred.highChance = false

	f.c.RunCycle(context.Background())

	assert.Empty(t, f.broker.buyCalls)
	assert.Empty(t, f.pred.logged) // несыгранный сетап в журнал сделок не идёт
}

func TestOutcomeAwaitFailureCountsAsLoss(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	f.broker.payouts["EURUSD"] = 0.85
	f.broker.windows["EURUSD"] = risingWindow()
	f.broker.outcomeErr = models.ErrTimeout

	f.c.RunCycle(context.Background())

	assert.Equal(t, []bool{false}, f.risk.outcomes)
	assert.Equal(t, []bool{false}, f.pred.logged)
	assert.Equal(t, 0, f.c.state.DailyWins)
}

func TestInstrumentFailureIsolation(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD", "GBPUSD"))
	f.broker.payouts["EURUSD"] = 0.85
	f.broker.payouts["GBPUSD"] = 0.85
	f.broker.fetchErr["EURUSD"] = models.ErrFetch
	f.broker.windows["GBPUSD"] = risingWindow()
	f.broker.outcome = true

	phase := f.c.RunCycle(context.Background())

	assert.Equal(t, models.PhaseRunning, phase)
	assert.Equal(t, []string{"GBPUSD"}, f.broker.buyCalls)
	assert.Equal(t, 1, f.c.state.DailyWins)
}

func TestPayoutFetchFailureSkipsWholeScan(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	f.broker.payoutErr = models.ErrFetch
	f.broker.windows["EURUSD"] = risingWindow()

	phase := f.c.RunCycle(context.Background())

	assert.Equal(t, models.PhaseRunning, phase)
	assert.Zero(t, f.broker.candleCalls["EURUSD"])
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	f := newFixture(sessionConfig("EURUSD"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on context cancellation")
	}
}
