package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options_bot/internal/models"
)

func TestSupportResistanceLookback(t *testing.T) {
	win := models.CandleWindow{
		candle(1, 5.0, 0.5, 1, 100), // старый экстремум за пределами lookback
		candle(1, 2.0, 0.9, 1, 100),
		candle(1, 2.2, 0.8, 1, 100),
		candle(1, 2.1, 0.95, 1, 100),
	}

	s, r, ok := SupportResistance(win, 3)
	require.True(t, ok)
	assert.InDelta(t, 0.8, s, 1e-9)
	assert.InDelta(t, 2.2, r, 1e-9)

	// lookback шире окна — берётся всё окно
	s, r, ok = SupportResistance(win, 50)
	require.True(t, ok)
	assert.InDelta(t, 0.5, s, 1e-9)
	assert.InDelta(t, 5.0, r, 1e-9)

	_, _, ok = SupportResistance(nil, 10)
	assert.False(t, ok)
}

func TestFibonacciLevels(t *testing.T) {
	win := models.CandleWindow{
		candle(150, 200, 100, 150, 100),
		candle(150, 180, 120, 160, 100),
	}

	levels := FibonacciLevels(win)
	require.Len(t, levels, 5)
	assert.InDelta(t, 123.6, levels["fib_236"], 1e-9)
	assert.InDelta(t, 138.2, levels["fib_382"], 1e-9)
	assert.InDelta(t, 150.0, levels["fib_500"], 1e-9)
	assert.InDelta(t, 161.8, levels["fib_618"], 1e-9)
	assert.InDelta(t, 178.6, levels["fib_786"], 1e-9)

	assert.Nil(t, FibonacciLevels(nil))
}

func TestTrendlineEndpoints(t *testing.T) {
	win := models.CandleWindow{
		candle(10, 11.0, 9.5, 10, 100),
		candle(10, 12.5, 9.8, 10, 100), // максимум high
		candle(10, 11.2, 8.9, 10, 100), // минимум low
		candle(10, 11.1, 9.4, 10, 100),
	}

	tp, ok := TrendlineEndpoints(win)
	require.True(t, ok)
	assert.Equal(t, 1, tp.ResistIdx)
	assert.InDelta(t, 12.5, tp.ResistPrice, 1e-9)
	assert.Equal(t, 2, tp.SupportIdx)
	assert.InDelta(t, 8.9, tp.SupportPrice, 1e-9)

	_, ok = TrendlineEndpoints(nil)
	assert.False(t, ok)
}
