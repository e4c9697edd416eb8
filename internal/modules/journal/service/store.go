package service

import (
	"context"
	"time"

	"options_bot/internal/models"
)

// Row — одна закрытая сделка в журнале. Журнал кормит предиктор,
// поэтому тут весь вектор признаков, а не только исход.
type Row struct {
	Instrument  string
	Pattern     string
	Breakout    models.Breakout
	Trend       models.Trend
	VolumeRatio float64
	Payout      float64
	Direction   models.Direction
	Stake       float64
	Win         bool
	CreatedAt   time.Time
}

type Store interface {
	Insert(ctx context.Context, row Row) error
	Since(ctx context.Context, from time.Time) ([]Row, error)
}
