// Package lrustore is a size-bounded in-process geocode cache for long-lived servers.
package lrustore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/garage-geo/internal/cache"
)

const DefaultSize = 4096

type Store struct {
	lru *lru.Cache[string, cache.Entry]
}

func New(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, cache.Entry](size)
	if err != nil {
		return nil, fmt.Errorf("lru cache: %w", err)
	}
	return &Store{lru: c}, nil
}

func (s *Store) Backend() string { return "lru" }

func (s *Store) Get(_ context.Context, address string) (cache.Entry, bool, error) {
	e, ok := s.lru.Get(address)
	return e, ok, nil
}

func (s *Store) Put(_ context.Context, e cache.Entry) error {
	s.lru.Add(e.Address, e)
	return nil
}

func (s *Store) Contains(_ context.Context, address string) (bool, error) {
	return s.lru.Contains(address), nil
}

func (s *Store) Delete(_ context.Context, addresses ...string) error {
	for _, a := range addresses {
		s.lru.Remove(a)
	}
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.lru.Purge()
	return nil
}

func (s *Store) Len() int { return s.lru.Len() }
