package service

import (
	"sync/atomic"
	"time"
)

// State — агрегат живости сервиса: ready выставляет bootstrap после
// префлайта, brokerConnected дёргает сокет брокера, lastCycle — контроллер
// в конце каждого цикла.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	brokerConnected atomic.Bool
	lastCycleUnix   atomic.Int64 // unix seconds
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetBrokerConnected(v bool) { s.brokerConnected.Store(v) }
func (s *State) BrokerConnected() bool     { return s.brokerConnected.Load() }

func (s *State) TouchCycle(t time.Time) { s.lastCycleUnix.Store(t.Unix()) }
func (s *State) LastCycle() time.Time {
	u := s.lastCycleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
