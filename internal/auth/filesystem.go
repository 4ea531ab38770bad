package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wisepenny/internal/core"

	"github.com/google/uuid"
)

// FileSessions persists one JSON file per session under a directory, the way
// the original deployment kept filesystem sessions. Suitable for a single
// node; expiry is checked on read and by CleanExpired.
type FileSessions struct {
	dir string
	ttl time.Duration
}

type fileSession struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewFileSessions(dir string, ttl time.Duration) (*FileSessions, error) {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileSessions{dir: dir, ttl: ttl}, nil
}

func (s *FileSessions) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

func (s *FileSessions) Create(userID string) (string, error) {
	id := uuid.NewString()
	data, err := json.Marshal(fileSession{
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.path(id), data, 0600); err != nil {
		return "", fmt.Errorf("write session file: %w", err)
	}
	return id, nil
}

func (s *FileSessions) Get(sessionID string) (string, error) {
	// Session ids are uuids we generated; anything else never hits disk.
	if uuid.Validate(sessionID) != nil {
		return "", core.ErrUnauthenticated
	}
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		return "", core.ErrUnauthenticated
	}
	var fs fileSession
	if err := json.Unmarshal(data, &fs); err != nil {
		return "", core.ErrUnauthenticated
	}
	if time.Now().After(fs.ExpiresAt) {
		_ = os.Remove(s.path(sessionID))
		return "", core.ErrUnauthenticated
	}
	return fs.UserID, nil
}

func (s *FileSessions) Delete(sessionID string) error {
	if uuid.Validate(sessionID) != nil {
		return nil
	}
	if err := os.Remove(s.path(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// CleanExpired removes expired session files, returning how many were
// deleted. Satisfies cache.Cleaner so a cache.Manager can drive it.
func (s *FileSessions) CleanExpired() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	removed := 0
	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		p := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var fs fileSession
		if err := json.Unmarshal(data, &fs); err != nil || now.After(fs.ExpiresAt) {
			if os.Remove(p) == nil {
				removed++
			}
		}
	}
	return removed
}

func (s *FileSessions) Close() error { return nil }

var _ Sessions = (*FileSessions)(nil)
