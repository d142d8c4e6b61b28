// Package geostore persists geocode entries in Redis so several processes and
// runs share one cache.
package geostore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohammed-shakir/garage-geo/internal/cache"
	"github.com/mohammed-shakir/garage-geo/internal/cache/keys"
	"github.com/mohammed-shakir/garage-geo/internal/cache/redisstore"
)

// TTLs for stored entries; zero keeps an entry until it is deleted.
type TTLs struct {
	Found  time.Duration
	Failed time.Duration
}

type Store struct {
	cli     *redisstore.Client
	ttl     TTLs
	timeout time.Duration
}

// New wraps cli. opTimeout bounds each Redis call when positive.
func New(cli *redisstore.Client, ttl TTLs, opTimeout time.Duration) *Store {
	return &Store{cli: cli, ttl: ttl, timeout: opTimeout}
}

func (s *Store) Backend() string { return "redis" }

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.cli.Ping(ctx)
}

// returns context with timeout if set
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) Get(ctx context.Context, address string) (cache.Entry, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, ok, err := s.cli.Get(ctx, keys.GeocodeKey(address))
	if err != nil || !ok {
		return cache.Entry{}, false, err
	}
	var e cache.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return cache.Entry{}, false, fmt.Errorf("geostore decode entry: %w", err)
	}
	// hash collision or foreign writer: treat as a miss
	if e.Address != address {
		return cache.Entry{}, false, nil
	}
	return e, true, nil
}

func (s *Store) Put(ctx context.Context, e cache.Entry) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("geostore encode entry: %w", err)
	}
	ttl := s.ttl.Failed
	if e.Found {
		ttl = s.ttl.Found
	}
	if err := s.cli.Set(ctx, keys.GeocodeKey(e.Address), b, ttl); err != nil {
		return fmt.Errorf("geostore put: %w", err)
	}
	return nil
}

func (s *Store) Contains(ctx context.Context, address string) (bool, error) {
	_, ok, err := s.Get(ctx, address)
	return ok, err
}

func (s *Store) Delete(ctx context.Context, addresses ...string) error {
	if len(addresses) == 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ks := make([]string, len(addresses))
	for i, a := range addresses {
		ks[i] = keys.GeocodeKey(a)
	}
	if err := s.cli.Del(ctx, ks...); err != nil {
		return fmt.Errorf("geostore delete: %w", err)
	}
	return nil
}

// Clear removes every geocode entry. It is not bounded by the op timeout
// because a SCAN over a large keyspace takes several round trips.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.cli.DelPattern(ctx, keys.Pattern); err != nil {
		return fmt.Errorf("geostore clear: %w", err)
	}
	return nil
}
