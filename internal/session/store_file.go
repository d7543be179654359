package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the session pair as two files under a directory, one
// per storage key. Writes go through a temp file and rename.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore constructs a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Save(ctx context.Context, sess Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir session dir: %w", err)
	}
	userPayload, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	// User first: a crash between the writes leaves a partial pair, which
	// readers already treat as no session.
	if err := s.writeKey(userKey, userPayload); err != nil {
		return err
	}
	return s.writeKey(tokenKey, []byte(sess.Token))
}

func (s *FileStore) Load(ctx context.Context) (Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	token, tokenErr := os.ReadFile(filepath.Join(s.dir, tokenKey))
	userRaw, userErr := os.ReadFile(filepath.Join(s.dir, userKey))
	if errors.Is(tokenErr, fs.ErrNotExist) || errors.Is(userErr, fs.ErrNotExist) {
		return Session{}, false, nil
	}
	if tokenErr != nil {
		return Session{}, false, fmt.Errorf("read token: %w", tokenErr)
	}
	if userErr != nil {
		return Session{}, false, fmt.Errorf("read user: %w", userErr)
	}

	var user User
	if err := json.Unmarshal(userRaw, &user); err != nil {
		// Corrupted pair: treat the session as absent.
		return Session{}, false, nil
	}
	if len(token) == 0 || user == nil {
		return Session{}, false, nil
	}
	return Session{Token: string(token), User: user}, true, nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{tokenKey, userKey} {
		if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return nil
}

func (s *FileStore) writeKey(key string, data []byte) error {
	final := filepath.Join(s.dir, key)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
