package streamclient

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SessionStore persists the conversation session id across runs, the
// client-side half of session negotiation.
type SessionStore interface {
	Load() string
	Save(id string) error
	Clear() error
}

// FileSessionStore keeps the id in a small file under the user config dir.
type FileSessionStore struct {
	path string
}

func NewFileSessionStore(appName string) (*FileSessionStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	dir = filepath.Join(dir, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileSessionStore{path: filepath.Join(dir, "session")}, nil
}

func (s *FileSessionStore) Load() string {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (s *FileSessionStore) Save(id string) error {
	return os.WriteFile(s.path, []byte(id), 0o644)
}

func (s *FileSessionStore) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemorySessionStore is an in-process store for tests and one-shot use.
type MemorySessionStore struct {
	id string
}

func (s *MemorySessionStore) Load() string         { return s.id }
func (s *MemorySessionStore) Save(id string) error { s.id = id; return nil }
func (s *MemorySessionStore) Clear() error         { s.id = ""; return nil }

// NewSessionID mints a time-seeded random session identifier.
func NewSessionID() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + hex.EncodeToString(buf)
}
