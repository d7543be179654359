package session

import (
	"context"
	"sync"
)

// Storage keys for cached session material. The pair is present together or
// absent together; a reader observing one without the other treats the
// session as absent.
const (
	tokenKey = "token"
	userKey  = "user"
)

// Store is the single access point to cached session material. Only the
// owned strategy writes it; readers treat a partial pair as no session.
type Store interface {
	// Save persists token and user as one logical unit.
	Save(ctx context.Context, s Session) error
	// Load returns the cached session, reporting false when either half of
	// the pair is missing.
	Load(ctx context.Context) (Session, bool, error)
	// Clear removes both keys. It is idempotent.
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session pair in memory. It is the default when no
// session directory is configured, and the test double elsewhere.
type MemoryStore struct {
	mu      sync.Mutex
	session Session
	present bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, sess Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
	s.present = true
	return nil
}

func (s *MemoryStore) Load(ctx context.Context) (Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present || s.session.Token == "" || s.session.User == nil {
		return Session{}, false, nil
	}
	return s.session, true, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	s.present = false
	return nil
}

var _ Store = (*MemoryStore)(nil)
