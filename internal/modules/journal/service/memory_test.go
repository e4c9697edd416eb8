package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options_bot/internal/models"
)

func TestMemorySinceFiltersByDate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	old := Row{Instrument: "EURUSD", Breakout: models.BreakoutUp, Trend: models.TrendUp,
		Direction: models.DirectionCall, Win: true, CreatedAt: time.Now().AddDate(0, 0, -40)}
	fresh := old
	fresh.CreatedAt = time.Now().AddDate(0, 0, -1)

	require.NoError(t, m.Insert(ctx, old))
	require.NoError(t, m.Insert(ctx, fresh))

	rows, err := m.Since(ctx, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fresh.CreatedAt, rows[0].CreatedAt)
}
