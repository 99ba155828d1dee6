package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionManager tracks live composition sessions by id. Sessions idle
// past the TTL are reaped; the UI gets a fresh one on its next request.
type SessionManager struct {
	engine  *Engine
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*sessionEntry
	stopCh   chan struct{}
}

type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

// NewSessionManager creates a manager reaping sessions idle past idleTTL
func NewSessionManager(engine *Engine, idleTTL time.Duration) *SessionManager {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	m := &SessionManager{
		engine:   engine,
		idleTTL:  idleTTL,
		sessions: make(map[string]*sessionEntry),
		stopCh:   make(chan struct{}),
	}
	go m.reap()
	return m
}

// Acquire returns the session for id, creating a new one when id is empty
// or unknown. Unknown ids happen when a session expired between requests;
// the caller gets a fresh session and should adopt its id.
func (m *SessionManager) Acquire(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if entry, ok := m.sessions[id]; ok {
			entry.lastSeen = time.Now()
			return entry.session
		}
	}

	session := m.engine.NewSession(uuid.NewString())
	m.sessions[session.ID()] = &sessionEntry{session: session, lastSeen: time.Now()}
	return session
}

// Reset destroys the session for id, if it exists
func (m *SessionManager) Reset(id string) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if ok {
		entry.session.Reset()
	}
}

// Len reports how many sessions are live
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop halts the reaper goroutine
func (m *SessionManager) Stop() {
	close(m.stopCh)
}

func (m *SessionManager) reap() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.removeIdle()
		case <-m.stopCh:
			return
		}
	}
}

func (m *SessionManager) removeIdle() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []*Session
	for id, entry := range m.sessions {
		if entry.lastSeen.Before(cutoff) {
			expired = append(expired, entry.session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Reset()
	}
}
