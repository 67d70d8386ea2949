package game

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"

	"contexto/internal/types"
)

// Repository persists session records. Implementations must hand out copies:
// the engine mutates what it gets and writes it back with Put.
type Repository interface {
	// Get returns the session or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*types.Session, error)

	// Put inserts or overwrites the session under its own ID.
	Put(ctx context.Context, s *types.Session) error

	// Replace stores s and drops the session previously known as oldID.
	// A missing oldID is not an error.
	Replace(ctx context.Context, oldID string, s *types.Session) error
}

// Sweeper is implemented by repositories that can expire idle sessions.
type Sweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}

// MemoryRepository keeps sessions in a map. When MaxSessions is reached the
// least recently updated session is evicted to make room.
type MemoryRepository struct {
	mu          sync.RWMutex
	sessions    map[string]*types.Session
	maxSessions int
	logger      Logger
}

// NewMemoryRepository creates an empty repository. maxSessions <= 0 means unbounded.
func NewMemoryRepository(maxSessions int, logger Logger) *MemoryRepository {
	if logger == nil {
		logger = defaultLogger()
	}
	return &MemoryRepository{
		sessions:    make(map[string]*types.Session),
		maxSessions: maxSessions,
		logger:      logger,
	}
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryRepository) Put(_ context.Context, s *types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(s)
	return nil
}

func (m *MemoryRepository) Replace(_ context.Context, oldID string, s *types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if oldID != "" && oldID != s.ID {
		delete(m.sessions, oldID)
	}
	m.store(s)
	return nil
}

// store must be called with mu held.
func (m *MemoryRepository) store(s *types.Session) {
	if _, exists := m.sessions[s.ID]; !exists && m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		oldest := lo.MinBy(lo.Values(m.sessions), func(a, b *types.Session) bool {
			return a.UpdatedAt.Before(b.UpdatedAt)
		})
		m.logger.Printf("[WARN] Session limit %d reached, evicting session %s", m.maxSessions, oldest.ID)
		delete(m.sessions, oldest.ID)
	}
	m.sessions[s.ID] = s.Clone()
}

// Len returns the number of stored sessions.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions not updated within maxAge.
func (m *MemoryRepository) Sweep(_ context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	m.mu.Lock()
	defer m.mu.Unlock()
	expired := lo.PickBy(m.sessions, func(_ string, s *types.Session) bool {
		return s.UpdatedAt.Before(cutoff)
	})
	for id := range expired {
		delete(m.sessions, id)
	}
	return len(expired), nil
}
