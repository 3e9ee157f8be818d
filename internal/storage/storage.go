package storage

import (
	"sync"
	"time"

	"github.com/lehigh-university-libraries/asdscreen/internal/models"
)

// SessionStore keeps browser sessions in memory. Nothing is persisted.
type SessionStore struct {
	sessions map[string]*models.Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.Session),
	}
}

func (s *SessionStore) Get(sessionID string) (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

// GetOrCreate returns the session for sessionID, creating it with create when absent.
func (s *SessionStore) GetOrCreate(sessionID string, create func(id string) *models.Session) (*models.Session, bool) {
	if session, ok := s.Get(sessionID); ok {
		return session, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		return session, false
	}
	session := create(sessionID)
	s.sessions[sessionID] = session
	return session, true
}

func (s *SessionStore) GetAll() []*models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// CleanupIdle drops sessions not seen within ttl and returns how many were removed.
// A dropped session's pending request still completes but its outcome is never read.
func (s *SessionStore) CleanupIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	removed := 0
	for _, session := range s.GetAll() {
		if session.LastSeen().Before(cutoff) {
			s.Delete(session.ID)
			removed++
		}
	}
	return removed
}
