package service

import (
	"log"
	"math"
	"sync"

	"options_bot/internal/helper"
	"options_bot/internal/modules/config"
)

// Manager — сессионные лимиты и эскалация ставки. Считает всё в рамках
// одной сессии процесса: net-профит, серии поражений по инструментам,
// цепочки сороса. Контроллер дергает его строго последовательно, мьютекс
// нужен только потому, что health/notify живут в своих горутинах.
type Manager struct {
	cfg *config.Config

	mu                sync.Mutex
	netProfit         float64
	sessionWins       int
	consecutiveLosses int

	lossStreak map[string]int     // инструмент -> подряд проигранных, для мартингейла
	sorosWins  map[string]int     // инструмент -> подряд выигранных в цепочке сороса
	sorosNext  map[string]float64 // инструмент -> ставка следующего колена сороса

	lastStake  map[string]float64 // ставка последнего nextStake, для registerOutcome
	lastPayout map[string]float64
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:        cfg,
		lossStreak: make(map[string]int),
		sorosWins:  make(map[string]int),
		sorosNext:  make(map[string]float64),
		lastStake:  make(map[string]float64),
		lastPayout: make(map[string]float64),
	}
}

// CanTrade — можно ли вообще входить по инструменту. Лимиты сессионные:
// стоп-лосс по сумме, стоп-лосс по серии, стоп-вин по сумме и по числу побед.
func (m *Manager) CanTrade(instrument string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.cfg.Risk
	if r.StopLossAmount > 0 && m.netProfit <= -r.StopLossAmount {
		return false
	}
	if r.StopLossConsecutive > 0 && m.consecutiveLosses >= r.StopLossConsecutive {
		return false
	}
	if r.StopWinAmount > 0 && m.netProfit >= r.StopWinAmount {
		return false
	}
	if r.StopWinVictories > 0 && m.sessionWins >= r.StopWinVictories {
		return false
	}
	return true
}

// NextStake считает ставку очередного входа и запоминает её для
// registerOutcome. Мартингейл растит базу по серии поражений инструмента,
// сорос реинвестирует валовый возврат прошлой победы, fixed всегда база.
func (m *Manager) NextStake(instrument string, highChance bool, payout float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.cfg.Risk
	amount := r.BaseAmount

	switch r.Strategy {
	case "martingale":
		// флаг сужает эскалацию до high-chance сетапов
		if !r.UseMartingaleIfHighChance || highChance {
			amount = r.BaseAmount * math.Pow(r.MartingaleFactor, float64(m.lossStreak[instrument]))
		}
	case "soros":
		if !r.UseSorosIfLowPayout || payout < r.MinPayoutForSoros {
			if wins := m.sorosWins[instrument]; wins > 0 && wins <= r.SorosLevel {
				amount = m.sorosNext[instrument]
			}
		}
	}

	// ставка не должна пробить остаток до стоп-лосса
	if r.StopLossAmount > 0 {
		headroom := r.StopLossAmount + m.netProfit
		amount = helper.ClampStake(amount, headroom)
	}
	amount = helper.RoundStake(amount)

	m.lastStake[instrument] = amount
	m.lastPayout[instrument] = payout
	return amount
}

// RegisterOutcome сводит исход в сессионные счётчики по ставке и выплате,
// записанным последним nextStake этого инструмента.
func (m *Manager) RegisterOutcome(instrument string, win bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stake := m.lastStake[instrument]
	payout := m.lastPayout[instrument]

	if win {
		m.netProfit += stake * payout
		m.sessionWins++
		m.consecutiveLosses = 0
		m.lossStreak[instrument] = 0

		// колено сороса: в следующий вход уходит ставка плюс выигрыш
		m.sorosWins[instrument]++
		if m.sorosWins[instrument] > m.cfg.Risk.SorosLevel {
			m.sorosWins[instrument] = 0
			m.sorosNext[instrument] = 0
		} else {
			m.sorosNext[instrument] = stake * (1 + payout)
		}
	} else {
		m.netProfit -= stake
		m.consecutiveLosses++
		m.lossStreak[instrument]++
		m.sorosWins[instrument] = 0
		m.sorosNext[instrument] = 0
	}

	log.Printf("[RISK] %s win=%v stake=%.2f net=%.2f streak=%d",
		instrument, win, stake, m.netProfit, m.consecutiveLosses)
}
