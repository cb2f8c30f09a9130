package storage

import (
	"context"
	"sync"

	"github.com/portscout/portscout/pkg/portutil"
)

// MemoryStore is an in-memory port cache. Used by tests and by the CLI
// when workspace persistence is disabled.
type MemoryStore struct {
	mu   sync.Mutex
	port int
	ok   bool
}

// NewMemoryStore returns an empty in-memory cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// GetPort returns the cached port, if any.
func (s *MemoryStore) GetPort(context.Context) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port, s.ok, nil
}

// SetPort records a port.
func (s *MemoryStore) SetPort(_ context.Context, port int) error {
	if err := portutil.Validate(port); err != nil {
		return NewInvalidInputError("port", err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port, s.ok = port, true
	return nil
}

// ClearPort drops the cached port.
func (s *MemoryStore) ClearPort(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port, s.ok = 0, false
	return nil
}

// ReadOnlyStore exposes only the read side of an underlying cache. The
// discovery engine detects the missing write side and skips persistence.
type ReadOnlyStore struct {
	inner *MemoryStore
}

// ReadOnly wraps a MemoryStore behind a read-only view.
func ReadOnly(inner *MemoryStore) *ReadOnlyStore {
	return &ReadOnlyStore{inner: inner}
}

// GetPort returns the cached port, if any.
func (s *ReadOnlyStore) GetPort(ctx context.Context) (int, bool, error) {
	return s.inner.GetPort(ctx)
}
