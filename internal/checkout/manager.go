package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/vendapos/venda-backend/pkg/errors"
)

// Manager tracks open sessions by ID. Sessions idle past the TTL are pruned
// lazily on access; an abandoned till does not hold memory forever.
type Manager struct {
	svc *Service
	ttl time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager builds a session registry over the checkout service.
func NewManager(svc *Service, ttl time.Duration) (*Manager, error) {
	if svc == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		svc:      svc,
		ttl:      ttl,
		sessions: make(map[uuid.UUID]*Session),
	}, nil
}

// Open starts and registers a new session.
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	session, err := m.svc.Open(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	m.sessions[session.ID()] = session
	return session, nil
}

// Get returns an open session or NOT_FOUND.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()

	session, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "checkout session not found")
	}
	return session, nil
}

// Close discards a session, committed or not.
func (m *Manager) Close(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	return len(m.sessions)
}

func (m *Manager) pruneLocked() {
	cutoff := time.Now().Add(-m.ttl)
	for id, session := range m.sessions {
		if session.LastActive().Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
