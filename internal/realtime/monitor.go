package realtime

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Monitor drives the hub's liveness sweeps on a fixed interval. It owns the
// ticker goroutine only; all registry mutation stays inside the hub actor.
type Monitor struct {
	hub      *Hub
	clock    clockwork.Clock
	interval time.Duration
	stopCh   chan struct{}
	stopped  chan struct{}
}

// NewMonitor creates a health monitor for the given hub. interval is the
// sweep period; a connection that misses one full cycle is evicted.
func NewMonitor(hub *Hub, clock clockwork.Clock, interval time.Duration) *Monitor {
	return &Monitor{
		hub:      hub,
		clock:    clock,
		interval: interval,
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (m *Monitor) Start() {
	go m.run()
}

func (m *Monitor) run() {
	defer close(m.stopped)

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("Health monitor started", "sweep_interval", m.interval)
	for {
		select {
		case <-ticker.Chan():
			m.hub.Sweep()
		case <-m.stopCh:
			return
		}
	}
}

// Stop halts the sweep loop and waits for it to exit.
func (m *Monitor) Stop() {
	close(m.stopCh)
	<-m.stopped
}
