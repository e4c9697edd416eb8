package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"options_bot/internal/modules/config"
	"options_bot/pkg/logger"
)

// Calendar — клиент экономического календаря. Недельный JSON-фид
// кэшируется на cache_minutes; событие "рядом" — высоковажная строка
// в пределах ±buffer_minutes от текущего момента.
//
// Фид недоступен — значит событий нет: мёртвый календарь не должен
// останавливать сессию навсегда, это осознанный fail-open.
type Calendar struct {
	cfg  *config.Config
	http *http.Client
	now  func() time.Time

	mu        sync.Mutex
	events    []event
	fetchedAt time.Time
}

type event struct {
	Title    string `json:"title"`
	Country  string `json:"country"`
	Date     string `json:"date"` // RFC3339
	Impact   string `json:"impact"`
	parsedAt time.Time
}

func NewCalendar(cfg *config.Config) *Calendar {
	return &Calendar{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
		now:  time.Now,
	}
}

// HasImminentHighImpactEvent — есть ли высоковажное событие в буфере вокруг
// текущего момента. Пустой calendar_url полностью выключает гейт.
func (c *Calendar) HasImminentHighImpactEvent(ctx context.Context) bool {
	if c.cfg.News.CalendarURL == "" {
		return false
	}

	events, err := c.cached(ctx)
	if err != nil {
		logger.Warn("news: calendar fetch failed, assuming no events: %v", err)
		return false
	}

	now := c.now()
	buffer := c.cfg.NewsBuffer()
	for _, ev := range events {
		if !strings.EqualFold(ev.Impact, "high") {
			continue
		}
		if !c.matchesCurrency(ev.Country) {
			continue
		}
		diff := ev.parsedAt.Sub(now)
		if diff < 0 {
			diff = -diff
		}
		if diff <= buffer {
			logger.Info("news: high impact event within buffer: %s (%s) at %s",
				ev.Title, ev.Country, ev.parsedAt.Format(time.RFC3339))
			return true
		}
	}
	return false
}

func (c *Calendar) matchesCurrency(country string) bool {
	if len(c.cfg.News.Currencies) == 0 {
		return true
	}
	for _, cur := range c.cfg.News.Currencies {
		if strings.EqualFold(cur, country) {
			return true
		}
	}
	return false
}

func (c *Calendar) cached(ctx context.Context) ([]event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.cfg.NewsCacheTTL() {
		return c.events, nil
	}

	events, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.events = events
	c.fetchedAt = c.now()
	return events, nil
}

func (c *Calendar) fetch(ctx context.Context) ([]event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.News.CalendarURL, nil)
	if err != nil {
		return nil, fmt.Errorf("calendar new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("calendar http %d: %s", resp.StatusCode, string(data))
	}

	var raw []event
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("calendar decode: %w", err)
	}

	out := make([]event, 0, len(raw))
	for _, ev := range raw {
		ts, err := time.Parse(time.RFC3339, ev.Date)
		if err != nil {
			continue // кривую строку фида просто пропускаем
		}
		ev.parsedAt = ts
		out = append(out, ev)
	}
	return out, nil
}
