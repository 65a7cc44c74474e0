// Ticker drives time cycles on a wall-clock interval for operators who want
// the galaxy to move without manual advance calls. The tick itself stays
// request-driven: each firing just invokes AdvanceTimeCycle per empire.
package engine

import (
	"log/slog"
	"time"
)

// Ticker periodically advances every empire.
type Ticker struct {
	Sim      *Simulation
	Interval time.Duration

	stop chan struct{}
}

// NewTicker creates a ticker with the given interval. An interval of zero
// disables automatic ticking.
func NewTicker(sim *Simulation, interval time.Duration) *Ticker {
	return &Ticker{Sim: sim, Interval: interval, stop: make(chan struct{})}
}

// Run blocks, firing a tick for every empire each interval, until Stop is
// called. Returns immediately when the interval is zero.
func (t *Ticker) Run() {
	if t.Interval <= 0 {
		return
	}
	slog.Info("tick timer started", "interval", t.Interval)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			slog.Info("tick timer stopped", "ticks", t.Sim.Ticks())
			return
		case <-ticker.C:
			t.fire()
		}
	}
}

// Stop halts the timer loop.
func (t *Ticker) Stop() {
	close(t.stop)
}

func (t *Ticker) fire() {
	t.Sim.mu.RLock()
	ids := make([]uint64, 0, len(t.Sim.Empires))
	for id := range t.Sim.Empires {
		ids = append(ids, id)
	}
	t.Sim.mu.RUnlock()
	sortByID(ids, func(id uint64) uint64 { return id })

	for _, id := range ids {
		if err := t.Sim.AdvanceTimeCycle(id); err != nil {
			slog.Error("scheduled tick failed", "empire", id, "error", err)
		}
	}
}
