package service

import (
	talib "github.com/markcheno/go-talib"

	"options_bot/internal/models"
)

// PatternDetector отдаёт срабатывания свечных паттернов на последней свече
// окна. Порядок хитов канонический и стабильный от вызова к вызову.
type PatternDetector interface {
	Detect(win models.CandleWindow) []models.PatternHit
}

// Aggregator превращает окно свечей в вектор признаков и направление сделки.
// Состояния нет: один вызов = один инструмент за один цикл.
type Aggregator struct {
	maFast       int
	maSlow       int
	volumePeriod int
	patterns     PatternDetector
}

func NewAggregator(maFast, maSlow, volumePeriod int, patterns PatternDetector) *Aggregator {
	return &Aggregator{
		maFast:       maFast,
		maSlow:       maSlow,
		volumePeriod: volumePeriod,
		patterns:     patterns,
	}
}

// Evaluate собирает все признаки за один проход окна.
// Короткое окно не ошибка: недоступные признаки выходят нейтральными.
func (a *Aggregator) Evaluate(win models.CandleWindow, payout float64) (models.FeatureVector, models.Direction) {
	f := models.FeatureVector{
		Pattern:     a.Pattern(win),
		Breakout:    a.Breakout(win),
		Trend:       a.Trend(win),
		VolumeRatio: a.VolumeRatio(win),
		Payout:      payout,
	}
	return f, InferDirection(f.Breakout, f.Trend)
}

// Trend сравнивает последние значения быстрой и медленной SMA по close.
// Пока окно короче медленного периода, обе средние недоступны — тренд flat.
func (a *Aggregator) Trend(win models.CandleWindow) models.Trend {
	closes := win.Closes()
	fast, okFast := lastSMA(closes, a.maFast)
	slow, okSlow := lastSMA(closes, a.maSlow)
	if !okFast || !okSlow {
		return models.TrendFlat
	}
	switch {
	case fast > slow:
		return models.TrendUp
	case fast < slow:
		return models.TrendDown
	default:
		return models.TrendFlat
	}
}

// Breakout сверяет последний close с экстремумами ВСЕГО окна,
// включая саму последнюю свечу. Исключать её нельзя: семантика именно такая.
func (a *Aggregator) Breakout(win models.CandleWindow) models.Breakout {
	last, ok := win.Last()
	if !ok {
		return models.BreakoutNone
	}
	support, _ := win.MinLow()
	resistance, _ := win.MaxHigh()
	switch {
	case last.Close > resistance:
		return models.BreakoutUp
	case last.Close < support:
		return models.BreakoutDown
	default:
		return models.BreakoutNone
	}
}

// VolumeRatio — объём последней свечи к скользящему среднему объёму
// за volumePeriod, включая текущую свечу. Ноль вместо NaN при пустом
// или коротком окне и при нулевом среднем.
func (a *Aggregator) VolumeRatio(win models.CandleWindow) float64 {
	vols := win.Volumes()
	mean, ok := lastSMA(vols, a.volumePeriod)
	if !ok || mean <= 0 {
		return 0
	}
	ratio := vols[len(vols)-1] / mean
	if ratio < 0 {
		return 0
	}
	return ratio
}

// Pattern — имя первого хита детектора, "" если срабатываний нет.
func (a *Aggregator) Pattern(win models.CandleWindow) string {
	if a.patterns == nil {
		return ""
	}
	hits := a.patterns.Detect(win)
	if len(hits) == 0 {
		return ""
	}
	return hits[0].Name
}

// InferDirection подтверждает пробой трендом. Пробой против тренда
// (и пробой при flat) сделки не даёт.
func InferDirection(b models.Breakout, t models.Trend) models.Direction {
	switch {
	case b == models.BreakoutUp && t == models.TrendUp:
		return models.DirectionCall
	case b == models.BreakoutDown && t == models.TrendDown:
		return models.DirectionPut
	default:
		return models.DirectionNone
	}
}

// lastSMA — последнее значение правой SMA. talib паникует на окне короче
// периода, поэтому нехватка данных отсекается до вызова.
func lastSMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	out := talib.Sma(values, period)
	return out[len(out)-1], true
}
