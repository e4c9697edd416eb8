package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options_bot/internal/models"
	journalsvc "options_bot/internal/modules/journal/service"
	"options_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

func goodFeatures() models.FeatureVector {
	return models.FeatureVector{
		Pattern:     "bullish_engulfing",
		Breakout:    models.BreakoutUp,
		Trend:       models.TrendUp,
		VolumeRatio: 1.3,
		Payout:      0.85,
	}
}

func seedJournal(t *testing.T, store journalsvc.Store, f models.FeatureVector, wins, losses int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < wins+losses; i++ {
		require.NoError(t, store.Insert(ctx, journalsvc.Row{
			Instrument:  "EURUSD",
			Pattern:     f.Pattern,
			Breakout:    f.Breakout,
			Trend:       f.Trend,
			VolumeRatio: f.VolumeRatio,
			Payout:      f.Payout,
			Direction:   models.DirectionCall,
			Stake:       2,
			Win:         i < wins,
			CreatedAt:   time.Now().Add(-time.Hour),
		}))
	}
}

func TestColdModelFallsBackToBasicComposite(t *testing.T) {
	p := New(journalsvc.NewMemory(), 0.55, 50, 30)

	assert.True(t, p.PredictHighChance(goodFeatures()))

	weak := goodFeatures()
	weak.VolumeRatio = 0.8
	assert.False(t, p.PredictHighChance(weak))
}

func TestTrainedModelUsesBucketWinRate(t *testing.T) {
	store := journalsvc.NewMemory()
	f := goodFeatures()
	seedJournal(t, store, f, 8, 2) // 80% побед в бакете

	p := New(store, 0.55, 10, 30)
	p.CheckAndTrainDaily(context.Background())

	assert.True(t, p.PredictHighChance(f))

	// незнакомый бакет при тёплой модели — отказ
	other := f
	other.Breakout = models.BreakoutDown
	other.Trend = models.TrendDown
	assert.False(t, p.PredictHighChance(other))
}

func TestTrainedModelRejectsLosingBucket(t *testing.T) {
	store := journalsvc.NewMemory()
	f := goodFeatures()
	seedJournal(t, store, f, 2, 8)

	p := New(store, 0.55, 10, 30)
	p.CheckAndTrainDaily(context.Background())

	assert.False(t, p.PredictHighChance(f))
}

func TestTrainsAtMostOncePerDay(t *testing.T) {
	store := journalsvc.NewMemory()
	f := goodFeatures()
	seedJournal(t, store, f, 10, 0)

	p := New(store, 0.55, 10, 30)
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return day }

	p.CheckAndTrainDaily(context.Background())
	assert.True(t, p.PredictHighChance(f))

	// новые строки в журнале в тот же день модель не трогают
	seedJournal(t, store, f, 0, 40)
	p.CheckAndTrainDaily(context.Background())
	assert.True(t, p.PredictHighChance(f))

	// на следующий день — пересчёт
	day = day.Add(24 * time.Hour)
	p.CheckAndTrainDaily(context.Background())
	assert.False(t, p.PredictHighChance(f))
}

func TestLogOutcomeFeedsLiveCounts(t *testing.T) {
	store := journalsvc.NewMemory()
	f := goodFeatures()
	p := New(store, 0.55, 5, 30)

	dec := models.TradeDecision{Instrument: "EURUSD", Direction: models.DirectionCall, Stake: 2, Features: f}
	for i := 0; i < 6; i++ {
		p.LogOutcome(f, dec, true)
	}

	// порог min_samples пройден живыми наблюдениями, бакет выигрышный
	assert.True(t, p.PredictHighChance(f))

	rows, err := store.Since(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}
