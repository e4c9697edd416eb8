package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"options_bot/internal/models"
)

// Buy открывает турбо-опцион и возвращает id ордера.
func (c *Client) Buy(ctx context.Context, amount float64, instrument string, direction models.Direction, expiry time.Duration) (string, error) {
	resp, err := c.request(ctx, "buy-option", map[string]any{
		"amount":         amount,
		"active":         instrument,
		"direction":      string(direction),
		"expiry_minutes": int(expiry.Minutes()),
		"option_type":    "turbo",
	})
	if err != nil {
		return "", errors.Wrapf(models.ErrExecution, "%v", err)
	}

	var msg buyMsg
	if err := sonic.Unmarshal(resp.Msg, &msg); err != nil {
		return "", errors.Wrapf(models.ErrExecution, "buy-option decode: %v", err)
	}
	if msg.ID == 0 {
		return "", errors.Wrapf(models.ErrExecution, "buy-option rejected: %s", msg.Message)
	}
	return strconv.FormatInt(msg.ID, 10), nil
}

// AwaitOutcome ждёт пуш option-closed по id ордера. Ждём экспирацию
// плюс запас: событие может прийти до вызова, тогда берём придержанное.
func (c *Client) AwaitOutcome(ctx context.Context, orderID string) (bool, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return false, errors.Wrapf(models.ErrTimeout, "bad order id %q", orderID)
	}

	c.mu.Lock()
	if win, ok := c.results[id]; ok {
		delete(c.results, id)
		c.mu.Unlock()
		return win, nil
	}
	ch := make(chan bool, 1)
	c.watchers[id] = ch
	c.mu.Unlock()

	timer := time.NewTimer(c.cfg.Expiry() + c.cfg.OutcomeGrace())
	defer timer.Stop()

	select {
	case win, ok := <-ch:
		if !ok {
			return false, errors.Wrapf(models.ErrTimeout, "order %s: connection lost", orderID)
		}
		return win, nil
	case <-timer.C:
		c.dropWatcher(id)
		return false, errors.Wrapf(models.ErrTimeout, "order %s: no close event", orderID)
	case <-ctx.Done():
		c.dropWatcher(id)
		return false, ctx.Err()
	}
}

func (c *Client) dropWatcher(id int64) {
	c.mu.Lock()
	delete(c.watchers, id)
	c.mu.Unlock()
}
