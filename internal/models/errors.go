package models

import "errors"

// Таксономия ошибок сессии. ErrConnection фатальна на старте,
// остальные изолируются на уровне одного инструмента за цикл.
var (
	ErrConnection = errors.New("broker connection failed")
	ErrFetch      = errors.New("market data fetch failed")
	ErrExecution  = errors.New("order execution failed")
	ErrTimeout    = errors.New("outcome wait timed out")
)
