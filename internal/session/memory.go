package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. Used in dev and tests.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m: make(map[string]Session),
	}
}

// Save also drops every expired session, so logins bound the map size.
func (s *MemoryStore) Save(_ context.Context, sess Session) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, old := range s.m {
		if old.Expired(now) {
			delete(s.m, id)
		}
	}

	s.m[sess.ID] = sess
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	now := time.Now()
	s.mu.RLock()
	sess, ok := s.m[id]
	s.mu.RUnlock()

	if !ok {
		return Session{}, ErrNotFound
	}

	if sess.Expired(now) {
		s.mu.Lock()
		delete(s.m, id)
		s.mu.Unlock()
		return Session{}, ErrNotFound
	}

	return sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
	return nil
}

// Len counts stored sessions, expired ones included until the next Save.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
