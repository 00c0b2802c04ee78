package memory

import (
	"context"
	"sync"

	"domainwatch/internal/requestlog"
)

// InMemoryStore keeps entries in append order.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []requestlog.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry requestlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns a copy of every entry, oldest first.
func (s *InMemoryStore) List(_ context.Context) ([]requestlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]requestlog.Entry{}, s.entries...), nil
}

// ListByDomain returns the entries recorded for domain, oldest first.
func (s *InMemoryStore) ListByDomain(_ context.Context, domain string) ([]requestlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []requestlog.Entry
	for _, e := range s.entries {
		if e.Domain == domain {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
