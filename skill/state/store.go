package state

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store is the persistence contract for dialog sessions, used by hosts that
// do not round-trip session attributes in the envelope.
type Store interface {
	Load(ctx context.Context, sessionID string) (*DialogSession, error)
	Save(ctx context.Context, s *DialogSession) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps sessions in process memory. It is the default backend
// for development and tests. Safe for concurrent use across sessions.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]DialogSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]DialogSession)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*DialogSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	copied := s
	return &copied, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *DialogSession) error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = *s
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
