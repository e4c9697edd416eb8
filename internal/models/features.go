package models

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

type Breakout string

const (
	BreakoutUp   Breakout = "breakout_up"
	BreakoutDown Breakout = "breakout_down"
	BreakoutNone Breakout = "none"
)

// Direction — сторона бинарного опциона: call/put или пусто.
type Direction string

const (
	DirectionNone Direction = ""
	DirectionCall Direction = "call"
	DirectionPut  Direction = "put"
)

// PatternHit — срабатывание свечного паттерна на последней свече окна.
// Strength знаковая и ненулевая: >0 бычий, <0 медвежий.
type PatternHit struct {
	Name     string
	Strength float64
}

// FeatureVector — вектор признаков одного инструмента за один цикл.
// Собирается один раз и дальше не мутирует.
type FeatureVector struct {
	Pattern     string // имя первого сработавшего паттерна, "" если нет
	Breakout    Breakout
	Trend       Trend
	VolumeRatio float64 // >= 0, ровно 0 при нулевом/недоступном среднем объёме
	Payout      float64 // [0,1]
}

// HighChanceBasic — базовый композитный сигнал: пробой + паттерн +
// объём выше среднего + непустой тренд. Чистая функция без состояния.
func (f FeatureVector) HighChanceBasic() bool {
	return f.Breakout != BreakoutNone &&
		f.Pattern != "" &&
		f.VolumeRatio > 1.0 &&
		f.Trend != TrendFlat
}

// TradeDecision — готовое к исполнению решение. Живёт один вызов брокера.
type TradeDecision struct {
	Instrument string
	Direction  Direction
	Stake      float64
	Features   FeatureVector
}
