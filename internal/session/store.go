// Package session keeps one widget view-model and one connectivity gate per
// browser session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/alexivanou/forecast-widget/internal/metrics"
	"github.com/alexivanou/forecast-widget/internal/widget"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Factory builds an unmounted view-model for a new session.
type Factory func() *widget.ViewModel

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Store maps session ids to sessions. Nothing outlives the process.
type Store struct {
	factory Factory
	idleTTL time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewStore creates a store. idleTTL <= 0 disables idle expiry.
func NewStore(factory Factory, idleTTL time.Duration, logger *zap.Logger, m *metrics.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		factory:  factory,
		idleTTL:  idleTTL,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Acquire returns the session for id. Unknown or empty ids get a fresh,
// online session whose widget is mounted with the default location; the
// caller must hand the returned session's ID back next time.
func (s *Store) Acquire(id string) (*Session, bool) {
	s.mu.Lock()
	if e, ok := s.sessions[id]; ok && id != "" {
		e.lastSeen = s.now()
		s.mu.Unlock()
		return e.session, false
	}

	sess := newSession(uuid.NewString(), s.factory, s.logger, s.updateGauges)
	s.sessions[sess.ID] = &entry{session: sess, lastSeen: s.now()}
	s.mu.Unlock()

	s.updateGauges()
	sess.Widget()
	return sess, true
}

// Lookup returns an existing session without creating one.
func (s *Store) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.session, true
}

// Unmount closes and forgets one session.
func (s *Store) Unmount(id string) bool {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return false
	}
	e.session.close()
	s.updateGauges()
	return true
}

// UnmountAll closes every session.
func (s *Store) UnmountAll() int {
	s.mu.Lock()
	old := s.sessions
	s.sessions = make(map[string]*entry)
	s.mu.Unlock()

	for _, e := range old {
		e.session.close()
	}
	s.updateGauges()
	return len(old)
}

// Sweep closes sessions idle for longer than the TTL.
func (s *Store) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	var expired []*Session
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	if len(expired) > 0 {
		s.updateGauges()
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Online returns the number of sessions whose browser reports connectivity.
func (s *Store) Online() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.sessions {
		if e.session.IsOnline() {
			n++
		}
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done, then closes
// everything.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.UnmountAll()
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("Unmounted idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (s *Store) updateGauges() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetSessions(s.Len())
	s.metrics.SetOnlineSessions(s.Online())
}
