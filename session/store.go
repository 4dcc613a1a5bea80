package session

import (
	"context"
	"errors"
	"sync"
)

// ErrBackendUnavailable is returned when a store's backing service could not
// be reached.
var ErrBackendUnavailable = errors.New("session store backend unavailable")

// ErrCorruptSnapshot is returned when a stored snapshot cannot be decoded.
var ErrCorruptSnapshot = errors.New("session snapshot corrupt")

// Store holds the current authenticated user for one browser context.
// Current returns nil with no error when nobody is authenticated. Set
// replaces the user unconditionally; Clear is idempotent.
type Store interface {
	Current(ctx context.Context) (*User, error)
	Set(ctx context.Context, u *User) error
	Clear(ctx context.Context) error
}

// MemoryStore is the default Store: a mutex-guarded snapshot with copy
// semantics, safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	user *User
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Current returns a copy of the stored user, or nil when anonymous.
func (s *MemoryStore) Current(context.Context) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone(), nil
}

// Set replaces the stored user. A nil user is equivalent to Clear.
func (s *MemoryStore) Set(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u.Clone()
	return nil
}

// Clear drops the stored user.
func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}
