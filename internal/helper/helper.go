package helper

import (
	"math"
	"time"
)

// DateOnly — календарная дата момента t в его собственной таймзоне.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RoundStake округляет ставку до цента вниз: брокер дробнее не принимает.
func RoundStake(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	return math.Floor(amount*100+1e-9) / 100
}

// ClampStake ограничивает ставку сверху неотрицательным потолком.
func ClampStake(amount, max float64) float64 {
	if max > 0 && amount > max {
		return max
	}
	return amount
}

// Payout переводит комиссию площадки (в процентах) в долю выплаты [0,1].
func Payout(commission float64) float64 {
	p := (100 - commission) / 100
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
