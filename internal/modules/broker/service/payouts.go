package service

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"options_bot/internal/helper"
	"options_bot/internal/models"
)

// GetPayouts — выплаты по всем активам площадки за один запрос.
// Площадка отдаёт комиссию в процентах: payout = (100 - commission) / 100.
// Закрытые активы в карту не попадают — для контроллера их просто нет.
func (c *Client) GetPayouts(ctx context.Context) (map[string]float64, error) {
	resp, err := c.request(ctx, "get-commissions", map[string]any{
		"instrument_type": "turbo-option",
	})
	if err != nil {
		return nil, err
	}

	var msg commissionsMsg
	if err := sonic.Unmarshal(resp.Msg, &msg); err != nil {
		return nil, errors.Wrapf(models.ErrFetch, "get-commissions decode: %v", err)
	}

	out := make(map[string]float64, len(msg.Commissions))
	for _, row := range msg.Commissions {
		if !row.Open {
			continue
		}
		out[row.Active] = helper.Payout(row.Commission)
	}
	return out, nil
}
