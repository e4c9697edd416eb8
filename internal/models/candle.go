package models

import "time"

// Candle — одна OHLCV свеча фиксированного таймфрейма.
// Поля числовые и конечные; порядок open/high/low/close источником не гарантируется.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandleWindow — окно свечей одного инструмента, последняя свеча в конце.
// Может прийти короче запрошенного: все расчёты обязаны это переживать.
type CandleWindow []Candle

func (w CandleWindow) Len() int { return len(w) }

// Last возвращает последнюю свечу окна; ok=false на пустом окне.
func (w CandleWindow) Last() (Candle, bool) {
	if len(w) == 0 {
		return Candle{}, false
	}
	return w[len(w)-1], true
}

func (w CandleWindow) Closes() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.Close
	}
	return out
}

func (w CandleWindow) Volumes() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.Volume
	}
	return out
}

// MinLow — минимум low по всему окну, включая последнюю свечу.
func (w CandleWindow) MinLow() (float64, bool) {
	if len(w) == 0 {
		return 0, false
	}
	min := w[0].Low
	for _, c := range w[1:] {
		if c.Low < min {
			min = c.Low
		}
	}
	return min, true
}

// MaxHigh — максимум high по всему окну, включая последнюю свечу.
func (w CandleWindow) MaxHigh() (float64, bool) {
	if len(w) == 0 {
		return 0, false
	}
	max := w[0].High
	for _, c := range w[1:] {
		if c.High > max {
			max = c.High
		}
	}
	return max, true
}

// Tail — последние n свечей (всё окно, если оно короче n).
func (w CandleWindow) Tail(n int) CandleWindow {
	if n <= 0 || len(w) == 0 {
		return nil
	}
	if len(w) <= n {
		return w
	}
	return w[len(w)-n:]
}
