package session

import (
	"sync"

	"github.com/example/gatiyaan/internal/observability"
)

// Manager owns all live sessions, keyed by token. Shared collaborators
// (roster, catalog, job queue, countdown) come in once through Deps; each
// session keeps only its own navigation and lifecycle state, so adding
// more concurrent clients is a matter of opening more sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Deps
}

func NewManager(deps Deps) *Manager {
	return &Manager{sessions: make(map[string]*Session), deps: deps}
}

// Open creates and registers a fresh unauthenticated session.
func (m *Manager) Open() *Session {
	s := New(m.deps)
	s.owners = m
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	observability.SessionsOpen.Inc()
	return s
}

func (m *Manager) Get(token string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	return s, ok
}

// Close drops a session, cancelling any countdown its active booking holds.
func (m *Manager) Close(token string) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if ok {
		delete(m.sessions, token)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	s.Logout()
	observability.SessionsOpen.Dec()
}

// ownerOf scans live sessions for the one holding the active booking.
func (m *Manager) ownerOf(bookingID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if b, ok := s.ActiveBooking(); ok && b.ID == bookingID {
			return s
		}
	}
	return nil
}
