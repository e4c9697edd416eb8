package models

import "time"

type SessionPhase string

const (
	PhaseRunning   SessionPhase = "running"
	PhaseNewsPause SessionPhase = "news_pause"
	PhaseDailyStop SessionPhase = "daily_stop_pause"
)

// SessionState — дневное состояние сессии. Живёт только в памяти,
// мутируется строго из цикла контроллера, рестарт процесса его обнуляет.
type SessionState struct {
	DailyWins     int
	LastTradeDate time.Time // дата (полночь), нулевое значение = ещё не было цикла
}

// RolloverIfNewDay сбрасывает дневной счётчик при смене календарной даты
// и всегда фиксирует текущую дату. Возвращает true, если был сброс.
func (s *SessionState) RolloverIfNewDay(today time.Time) bool {
	reset := s.LastTradeDate.IsZero() || s.LastTradeDate.Before(today)
	if reset {
		s.DailyWins = 0
	}
	s.LastTradeDate = today
	return reset
}
