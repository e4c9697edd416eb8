package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"options_bot/internal/helper"
	"options_bot/internal/models"
	journalsvc "options_bot/internal/modules/journal/service"
	"options_bot/pkg/logger"
)

// Predictor — частотная модель качества сетапа по бакетам признаков.
// Бакет: пробой + тренд + наличие паттерна + полоса объёма. Раз в день
// пересчитывается из журнала, между переобучениями дообучается на лету.
// Холодная модель (мало наблюдений) откатывается на базовый композит.
type Predictor struct {
	store journalsvc.Store

	threshold  float64
	minSamples int
	lookback   time.Duration

	now func() time.Time

	mu          sync.Mutex
	buckets     map[string]*bucket
	total       int
	lastTrained time.Time // дата (полночь) последнего переобучения
}

type bucket struct {
	wins  int
	total int
}

func New(store journalsvc.Store, threshold float64, minSamples, lookbackDays int) *Predictor {
	return &Predictor{
		store:      store,
		threshold:  threshold,
		minSamples: minSamples,
		lookback:   time.Duration(lookbackDays) * 24 * time.Hour,
		now:        time.Now,
		buckets:    make(map[string]*bucket),
	}
}

// CheckAndTrainDaily перечитывает журнал не чаще раза в календарный день.
// Ошибка чтения не фатальна: живём на текущих счётчиках до завтра.
func (p *Predictor) CheckAndTrainDaily(ctx context.Context) {
	today := helper.DateOnly(p.now())

	p.mu.Lock()
	if !p.lastTrained.IsZero() && !p.lastTrained.Before(today) {
		p.mu.Unlock()
		return
	}
	p.lastTrained = today
	p.mu.Unlock()

	rows, err := p.store.Since(ctx, p.now().Add(-p.lookback))
	if err != nil {
		logger.Warn("predictor: journal read failed, keeping current model: %v", err)
		return
	}

	buckets := make(map[string]*bucket)
	for _, r := range rows {
		key := bucketKey(models.FeatureVector{
			Pattern:     r.Pattern,
			Breakout:    r.Breakout,
			Trend:       r.Trend,
			VolumeRatio: r.VolumeRatio,
		})
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.total++
		if r.Win {
			b.wins++
		}
	}

	p.mu.Lock()
	p.buckets = buckets
	p.total = len(rows)
	p.mu.Unlock()
	logger.Info("predictor: retrained on %d journal rows, %d buckets", len(rows), len(buckets))
}

// PredictHighChance: сглаженный win-rate бакета против порога.
// Пока наблюдений меньше min_samples, решает базовый композитный сигнал.
func (p *Predictor) PredictHighChance(f models.FeatureVector) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total < p.minSamples {
		return f.HighChanceBasic()
	}

	b := p.buckets[bucketKey(f)]
	if b == nil || b.total == 0 {
		// незнакомый бакет — не торгуем вслепую
		return false
	}
	// сглаживание Лапласа, чтобы бакет из пары строк не давал 0% или 100%
	rate := (float64(b.wins) + 1) / (float64(b.total) + 2)
	return rate >= p.threshold
}

// LogOutcome пишет сделку в журнал и сразу заводит её в живые счётчики.
func (p *Predictor) LogOutcome(f models.FeatureVector, decision models.TradeDecision, win bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := p.store.Insert(ctx, journalsvc.Row{
		Instrument:  decision.Instrument,
		Pattern:     f.Pattern,
		Breakout:    f.Breakout,
		Trend:       f.Trend,
		VolumeRatio: f.VolumeRatio,
		Payout:      f.Payout,
		Direction:   decision.Direction,
		Stake:       decision.Stake,
		Win:         win,
		CreatedAt:   p.now(),
	})
	if err != nil {
		logger.Warn("predictor: journal insert failed: %v", err)
	}

	p.mu.Lock()
	key := bucketKey(f)
	b := p.buckets[key]
	if b == nil {
		b = &bucket{}
		p.buckets[key] = b
	}
	b.total++
	if win {
		b.wins++
	}
	p.total++
	p.mu.Unlock()
}

// bucketKey дискретизирует вектор: ровный объём / выше среднего / всплеск.
func bucketKey(f models.FeatureVector) string {
	band := "low"
	switch {
	case f.VolumeRatio > 1.5:
		band = "surge"
	case f.VolumeRatio > 1.0:
		band = "high"
	}
	hasPattern := f.Pattern != ""
	return fmt.Sprintf("%s|%s|%t|%s", f.Breakout, f.Trend, hasPattern, band)
}
