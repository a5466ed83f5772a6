// Package connectivity tracks the online/offline state of the device and
// fires a one-shot signal on each reconnect edge, which is what triggers
// an automatic sync.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Probe reports whether the server is currently reachable.
type Probe func() bool

// Monitor holds the reachability level and detects offline→online edges.
// The zero state is offline until the first report.
type Monitor struct {
	mu     sync.Mutex
	online bool
	seeded bool

	// onReconnect runs once per offline→online transition, never on a
	// steady online reading.
	onReconnect func()
}

// NewMonitor creates a monitor invoking onReconnect on each reconnect
// edge. onReconnect may be nil.
func NewMonitor(onReconnect func()) *Monitor {
	return &Monitor{onReconnect: onReconnect}
}

// Online returns the current reachability level.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline feeds a reachability reading into the monitor. The reconnect
// callback fires only when the reading flips offline to online; repeated
// online readings are level, not edge.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	seeded := m.seeded
	m.online = online
	m.seeded = true
	m.mu.Unlock()

	// The very first reading seeds the level without an edge: starting
	// online is not a reconnect.
	if !seeded {
		return
	}
	if online && !wasOnline && m.onReconnect != nil {
		slog.Debug("connectivity: reconnected")
		m.onReconnect()
	}
}

// Run polls the probe at the given interval until ctx is done, feeding
// each reading through SetOnline. The first probe runs immediately.
func (m *Monitor) Run(ctx context.Context, probe Probe, interval time.Duration) {
	m.SetOnline(probe())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetOnline(probe())
		}
	}
}
