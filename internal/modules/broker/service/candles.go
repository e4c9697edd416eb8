package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"options_bot/internal/models"
)

// GetCandles запрашивает count последних закрытых свечей таймфрейма.
// Поля площадки min/max переименовываются в low/high здесь же, чтобы
// дальше по коду жил только нормализованный Candle.
func (c *Client) GetCandles(ctx context.Context, instrument string, timeframe time.Duration, count int) (models.CandleWindow, error) {
	resp, err := c.request(ctx, "get-candles", map[string]any{
		"active": instrument,
		"size":   int(timeframe.Seconds()),
		"count":  count,
		"to":     time.Now().Unix(),
	})
	if err != nil {
		return nil, err
	}

	var msg candlesMsg
	if err := sonic.Unmarshal(resp.Msg, &msg); err != nil {
		return nil, errors.Wrapf(models.ErrFetch, "get-candles decode: %v", err)
	}
	return mapCandles(msg.Candles), nil
}

func mapCandles(rows []wireCandle) models.CandleWindow {
	win := make(models.CandleWindow, 0, len(rows))
	for _, r := range rows {
		win = append(win, models.Candle{
			Time:   time.Unix(r.From, 0),
			Open:   r.Open,
			High:   r.Max,
			Low:    r.Min,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return win
}
