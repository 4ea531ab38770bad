package auth

import (
	"time"

	"wisepenny/internal/cache"
	"wisepenny/internal/core"

	"github.com/google/uuid"
)

// SessionTTL is the absolute session lifetime. Sessions do not renew on
// access.
const SessionTTL = 24 * time.Hour

// Sessions maps generated session ids to user ids.
type Sessions interface {
	// Create binds a fresh session id to userID.
	Create(userID string) (string, error)

	// Get resolves a session id; missing or expired sessions are
	// core.ErrUnauthenticated.
	Get(sessionID string) (string, error)

	// Delete invalidates the session immediately. Unknown ids are not an
	// error.
	Delete(sessionID string) error

	Close() error
}

// MemorySessions keeps sessions in a TTL cache with periodic cleanup of
// expired entries.
type MemorySessions struct {
	cache   *cache.LRUCache[string]
	manager *cache.Manager
}

const maxSessions = 16384

func NewMemorySessions(ttl time.Duration) *MemorySessions {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	c := cache.NewLRUCache[string](maxSessions, ttl)
	m := cache.NewManager()
	m.Register(c)
	m.StartCleanup(10 * time.Minute)
	return &MemorySessions{cache: c, manager: m}
}

func (s *MemorySessions) Create(userID string) (string, error) {
	id := uuid.NewString()
	s.cache.Set(id, userID)
	return id, nil
}

func (s *MemorySessions) Get(sessionID string) (string, error) {
	userID, ok := s.cache.Get(sessionID)
	if !ok {
		return "", core.ErrUnauthenticated
	}
	return userID, nil
}

func (s *MemorySessions) Delete(sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

func (s *MemorySessions) Close() error {
	s.manager.Stop()
	return nil
}

var _ Sessions = (*MemorySessions)(nil)
