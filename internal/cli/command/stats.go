package command

import (
	"sync/atomic"
	"time"
)

// stats counts primitive events for a command summary. It implements
// cell.Observer and stm.Observer.
type stats struct {
	swaps    atomic.Int64
	commits  atomic.Int64
	retries  atomic.Int64
	aborts   atomic.Int64
	rejected atomic.Int64
}

func (s *stats) Swapped(_ string, retries int) {
	s.swaps.Add(1)
	s.retries.Add(int64(retries))
}

func (s *stats) Rejected(string) {
	s.rejected.Add(1)
}

func (s *stats) Committed(int, time.Duration) {
	s.commits.Add(1)
}

func (s *stats) Retried(int) {
	s.retries.Add(1)
}

func (s *stats) Aborted(reason string) {
	s.aborts.Add(1)
	if reason == "invalid_state" {
		s.rejected.Add(1)
	}
}
