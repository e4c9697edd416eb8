package service

import "options_bot/internal/models"

// Вспомогательная аналитика уровней. В решение о сделке не входит,
// живёт отдельными чистыми функциями поверх окна.

// SupportResistance — минимум low и максимум high за последние lookback свечей.
func SupportResistance(win models.CandleWindow, lookback int) (support, resistance float64, ok bool) {
	tail := win.Tail(lookback)
	if len(tail) == 0 {
		return 0, 0, false
	}
	support, _ = tail.MinLow()
	resistance, _ = tail.MaxHigh()
	return support, resistance, true
}

var fibRatios = []struct {
	name  string
	ratio float64
}{
	{"fib_236", 0.236},
	{"fib_382", 0.382},
	{"fib_500", 0.500},
	{"fib_618", 0.618},
	{"fib_786", 0.786},
}

// FibonacciLevels — уровни коррекции между минимумом и максимумом окна.
func FibonacciLevels(win models.CandleWindow) map[string]float64 {
	if len(win) == 0 {
		return nil
	}
	low, _ := win.MinLow()
	high, _ := win.MaxHigh()
	diff := high - low

	out := make(map[string]float64, len(fibRatios))
	for _, f := range fibRatios {
		out[f.name] = low + diff*f.ratio
	}
	return out
}

// TrendlinePoints — наивные опорные точки трендовых линий:
// позиция и цена экстремального low (опора снизу) и high (опора сверху).
type TrendlinePoints struct {
	SupportIdx   int
	SupportPrice float64
	ResistIdx    int
	ResistPrice  float64
}

func TrendlineEndpoints(win models.CandleWindow) (TrendlinePoints, bool) {
	if len(win) == 0 {
		return TrendlinePoints{}, false
	}
	tp := TrendlinePoints{
		SupportPrice: win[0].Low,
		ResistPrice:  win[0].High,
	}
	for i, c := range win {
		if c.Low < tp.SupportPrice {
			tp.SupportPrice = c.Low
			tp.SupportIdx = i
		}
		if c.High > tp.ResistPrice {
			tp.ResistPrice = c.High
			tp.ResistIdx = i
		}
	}
	return tp, true
}
