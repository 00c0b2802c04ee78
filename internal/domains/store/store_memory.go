package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"domainwatch/internal/domains/models"
	"domainwatch/pkg/domain"
	"domainwatch/pkg/platform/sentinel"
)

// InMemoryStore keeps domain records in a map guarded by an RWMutex. Every write
// replaces a whole record under the lock, which gives per-record atomicity.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Name]*models.Record
	clock   func() time.Time
}

// NewInMemoryStore creates an empty in-memory record store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[domain.Name]*models.Record),
		clock:   time.Now,
	}
}

// Get returns a copy of the record, or sentinel.ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, name domain.Name) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

// Upsert creates the record when absent and overwrites only the supplied fields.
func (s *InMemoryStore) Upsert(_ context.Context, name domain.Name, u models.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := models.NewRecord(name)
	if rec, ok := s.records[name]; ok {
		next = rec.Clone()
	}
	u.Apply(next)
	next.UpdatedAt = s.clock()
	s.records[name] = next
	return nil
}

// ListStale returns names never scanned or last scanned strictly before cutoff,
// sorted for deterministic sweeps.
func (s *InMemoryStore) ListStale(_ context.Context, cutoff time.Time) ([]domain.Name, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []domain.Name
	for name, rec := range s.records {
		if rec.LastScannedAt == nil || rec.LastScannedAt.Before(cutoff) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Len returns the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
