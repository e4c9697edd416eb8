package service

import (
	"context"
	"sync"
	"time"
)

// Memory — журнал в памяти. Работает, когда db_dsn не задан,
// и в тестах. История умирает вместе с процессом.
type Memory struct {
	mu   sync.Mutex
	rows []Row
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Insert(_ context.Context, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
	return nil
}

func (m *Memory) Since(_ context.Context, from time.Time) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, 0, len(m.rows))
	for _, r := range m.rows {
		if r.CreatedAt.Before(from) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
