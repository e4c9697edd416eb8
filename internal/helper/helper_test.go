package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateOnlyStripsClock(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	ts := time.Date(2026, 3, 2, 23, 59, 59, 123, loc)

	d := DateOnly(ts)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), d)
	assert.Equal(t, loc, d.Location())
}

func TestRoundStakeFloorsToCents(t *testing.T) {
	assert.Equal(t, 2.0, RoundStake(2.0))
	assert.Equal(t, 3.79, RoundStake(3.799))
	assert.Equal(t, 0.0, RoundStake(0))
	assert.Equal(t, 0.0, RoundStake(-5))
}

func TestClampStake(t *testing.T) {
	assert.Equal(t, 3.0, ClampStake(4, 3))
	assert.Equal(t, 2.0, ClampStake(2, 3))
	assert.Equal(t, 4.0, ClampStake(4, 0)) // нулевой потолок = без ограничения
}

func TestPayoutFromCommission(t *testing.T) {
	assert.Equal(t, 0.87, Payout(13))
	assert.Equal(t, 0.0, Payout(120)) // комиссия больше ста — выплаты нет
	assert.Equal(t, 1.0, Payout(-5))
}
