// Package otp holds one-time password-reset codes keyed by email.
//
// The store sits behind an interface so the process-local map used here can
// be swapped for a shared store with native TTLs (e.g. Redis) without
// touching the handlers.
package otp

import (
	"sync"
	"time"
)

// TTL is how long a code stays valid after issuance.
const TTL = 10 * time.Minute

// Store is the keyed put-with-expiry/get/delete service the auth handlers
// depend on. A new Put for the same email overwrites the previous code.
type Store interface {
	Put(email, code string)
	Get(email string) (code string, ok bool)
	Delete(email string)
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded in-memory Store. Expired entries are
// removed lazily on lookup.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time // overridable for tests
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(email, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = entry{
		code:      code,
		expiresAt: s.now().Add(TTL),
	}
}

func (s *MemoryStore) Get(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok {
		return "", false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, email)
		return "", false
	}
	return e.code, true
}

func (s *MemoryStore) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
}
