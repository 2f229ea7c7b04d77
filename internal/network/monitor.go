// Package network tracks whether the client side reports itself online.
package network

import "sync"

// Source is the host environment's connectivity signal.
type Source interface {
	Online() bool
	// Subscribe registers fn for online/offline notifications and returns
	// the function that removes it.
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// Monitor exposes the last connectivity value reported by its Source.
type Monitor struct {
	source Source

	mu          sync.RWMutex
	online      bool
	started     bool
	seen        bool
	unsubscribe func()
	nextID      int
	listeners   map[int]func(bool)
}

// NewMonitor creates a monitor over src. Call Start to begin listening.
func NewMonitor(src Source) *Monitor {
	return &Monitor{
		source:    src,
		listeners: make(map[int]func(bool)),
	}
}

// Start subscribes to the source and takes its current value.
// Calling Start on a started monitor does nothing.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.seen = false
	m.mu.Unlock()

	// subscribe before reading so a report landing in between is delivered
	unsubscribe := m.source.Subscribe(m.set)
	current := m.source.Online()

	m.mu.Lock()
	m.unsubscribe = unsubscribe
	if !m.seen {
		m.online = current
		m.seen = true
	}
	m.mu.Unlock()
}

// Close releases the source subscription.
func (m *Monitor) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.started = false
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// IsOnline reports the last known connectivity.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// OnChange registers fn to run on every online/offline transition.
func (m *Monitor) OnChange(fn func(online bool)) (remove func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Monitor) set(online bool) {
	m.mu.Lock()
	m.seen = true
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	listeners := make([]func(bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(online)
	}
}
