package network

import "sync"

// Notifier is a Source driven by explicit reports, such as the browser
// posting its online and offline events.
type Notifier struct {
	mu          sync.Mutex
	online      bool
	nextID      int
	subscribers map[int]func(bool)
}

// NewNotifier creates a notifier with an initial value.
func NewNotifier(online bool) *Notifier {
	return &Notifier{
		online:      online,
		subscribers: make(map[int]func(bool)),
	}
}

func (n *Notifier) Online() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online
}

func (n *Notifier) Subscribe(fn func(bool)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subscribers[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subscribers, id)
		n.mu.Unlock()
	}
}

// Report records a connectivity event and forwards it to subscribers.
func (n *Notifier) Report(online bool) {
	n.mu.Lock()
	n.online = online
	subs := make([]func(bool), 0, len(n.subscribers))
	for _, fn := range n.subscribers {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Subscribers returns the number of active subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subscribers)
}

// Static is a Source that never changes.
type Static bool

func (s Static) Online() bool { return bool(s) }

func (s Static) Subscribe(func(bool)) func() { return func() {} }
