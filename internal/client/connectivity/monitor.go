// Package connectivity tracks whether the client is online and detects the
// edge of reconnection. It never probes the network itself: state changes
// come from an external signal source via Set or Watch.
package connectivity

import (
	"context"
	"sync"
	"time"
)

type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// Monitor is safe for concurrent use.
type Monitor struct {
	mu              sync.Mutex
	state           State
	justReconnected bool
	offlineSince    time.Time
	lastOffline     time.Duration
	reconnected     chan struct{}
	now             func() time.Time
}

// NewMonitor starts in the given state.
func NewMonitor(initial State) *Monitor {
	m := &Monitor{
		state:       initial,
		reconnected: make(chan struct{}, 1),
		now:         time.Now,
	}
	if initial == Offline {
		m.offlineSince = m.now()
	}
	return m
}

// Set records a connectivity signal. Repeated signals for the current state
// are ignored.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case online && m.state == Offline:
		m.state = Online
		m.justReconnected = true
		if !m.offlineSince.IsZero() {
			m.lastOffline = m.now().Sub(m.offlineSince)
		}
		m.offlineSince = time.Time{}
		select {
		case m.reconnected <- struct{}{}:
		default:
		}
	case !online && m.state == Online:
		m.state = Offline
		m.justReconnected = false
		m.offlineSince = m.now()
	}
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) IsOnline() bool {
	return m.State() == Online
}

// JustReconnected is true exactly once after each Offline to Online
// transition; reading it consumes the flag.
func (m *Monitor) JustReconnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.justReconnected
	m.justReconnected = false
	return v
}

// Reconnected delivers one value per reconnection edge. Edges that arrive
// while a value is still unread are coalesced.
func (m *Monitor) Reconnected() <-chan struct{} {
	return m.reconnected
}

// OfflineSince returns when the current offline period began, or the zero
// time while online.
func (m *Monitor) OfflineSince() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offlineSince
}

// WasOffline reports whether the client is offline now or came back from an
// offline period within the last window.
func (m *Monitor) WasOffline(window time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Offline {
		return true
	}
	return m.lastOffline > 0 && m.lastOffline <= window
}

// Watch feeds signals into the monitor until ctx is done or signals closes.
func (m *Monitor) Watch(ctx context.Context, signals <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-signals:
			if !ok {
				return
			}
			m.Set(online)
		}
	}
}
