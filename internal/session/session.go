package session

import (
	"sync"

	"github.com/alexivanou/forecast-widget/internal/network"
	"github.com/alexivanou/forecast-widget/internal/widget"
	"go.uber.org/zap"
)

// Session is one browser's widget together with the connectivity that
// browser reports. Its widget is unmounted while the session is offline and
// mounted again, with the default location, on the first use after it
// comes back online.
type Session struct {
	ID string

	notifier *network.Notifier
	monitor  *network.Monitor
	stopGate func()
	factory  Factory
	logger   *zap.Logger

	mu     sync.Mutex
	vm     *widget.ViewModel
	closed bool
}

func newSession(id string, factory Factory, logger *zap.Logger, onChange func()) *Session {
	s := &Session{
		ID:       id,
		notifier: network.NewNotifier(true),
		factory:  factory,
		logger:   logger.With(zap.String("session", id)),
	}
	s.monitor = network.NewMonitor(s.notifier)
	s.monitor.Start()
	s.stopGate = s.monitor.OnChange(func(online bool) {
		if online {
			s.logger.Debug("Client reported online")
		} else if s.unmountWidget() {
			s.logger.Debug("Client reported offline, unmounted widget")
		}
		onChange()
	})
	return s
}

// IsOnline reports the connectivity last reported for this session.
func (s *Session) IsOnline() bool {
	return s.monitor.IsOnline()
}

// Report records a connectivity event from this session's browser.
func (s *Session) Report(online bool) {
	s.notifier.Report(online)
}

// Widget returns the session's view-model, mounting a new one when the
// session is online and has none. It returns nil while offline.
func (s *Session) Widget() *widget.ViewModel {
	s.mu.Lock()
	if s.closed || !s.monitor.IsOnline() {
		s.mu.Unlock()
		return nil
	}
	if s.vm != nil {
		vm := s.vm
		s.mu.Unlock()
		return vm
	}
	vm := s.factory()
	s.vm = vm
	s.mu.Unlock()

	s.logger.Debug("Mounted widget")
	vm.Mount("")
	return vm
}

// Mounted reports whether the session currently holds a widget.
func (s *Session) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vm != nil
}

func (s *Session) unmountWidget() bool {
	s.mu.Lock()
	vm := s.vm
	s.vm = nil
	s.mu.Unlock()

	if vm == nil {
		return false
	}
	vm.Close()
	return true
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.stopGate()
	s.monitor.Close()
	s.unmountWidget()
}
