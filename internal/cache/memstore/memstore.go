// Package memstore is the session geocode cache: unbounded, never evicts.
package memstore

import (
	"context"
	"sync"

	"github.com/mohammed-shakir/garage-geo/internal/cache"
)

type Store struct {
	mu      sync.RWMutex
	entries map[string]cache.Entry
}

func New() *Store {
	return &Store{entries: map[string]cache.Entry{}}
}

func (s *Store) Backend() string { return "memory" }

func (s *Store) Get(_ context.Context, address string) (cache.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[address]
	return e, ok, nil
}

func (s *Store) Put(_ context.Context, e cache.Entry) error {
	s.mu.Lock()
	s.entries[e.Address] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) Contains(_ context.Context, address string) (bool, error) {
	s.mu.RLock()
	_, ok := s.entries[address]
	s.mu.RUnlock()
	return ok, nil
}

func (s *Store) Delete(_ context.Context, addresses ...string) error {
	s.mu.Lock()
	for _, a := range addresses {
		delete(s.entries, a)
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = map[string]cache.Entry{}
	s.mu.Unlock()
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
