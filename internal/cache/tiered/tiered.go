// Package tiered layers a fast local store over a shared one.
package tiered

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mohammed-shakir/garage-geo/internal/cache"
)

// Store reads near first, then far, and backfills near on a far hit.
// Writes and deletes go to both.
type Store struct {
	near   cache.Store
	far    cache.Store
	logger *slog.Logger
}

func New(near, far cache.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{near: near, far: far, logger: logger}
}

func (s *Store) Backend() string { return "tiered" }

// Ping reports the health of the shared store.
func (s *Store) Ping(ctx context.Context) error { return cache.Ping(ctx, s.far) }

func (s *Store) Get(ctx context.Context, address string) (cache.Entry, bool, error) {
	if e, ok, err := s.near.Get(ctx, address); err == nil && ok {
		return e, true, nil
	}
	e, ok, err := s.far.Get(ctx, address)
	if err != nil {
		return cache.Entry{}, false, err
	}
	if !ok {
		return cache.Entry{}, false, nil
	}
	if err := s.near.Put(ctx, e); err != nil {
		s.logger.Debug("near cache backfill failed", "err", err)
	}
	return e, true, nil
}

func (s *Store) Put(ctx context.Context, e cache.Entry) error {
	errNear := s.near.Put(ctx, e)
	errFar := s.far.Put(ctx, e)
	return errors.Join(errNear, errFar)
}

func (s *Store) Contains(ctx context.Context, address string) (bool, error) {
	if ok, err := s.near.Contains(ctx, address); err == nil && ok {
		return true, nil
	}
	return s.far.Contains(ctx, address)
}

func (s *Store) Delete(ctx context.Context, addresses ...string) error {
	return errors.Join(s.near.Delete(ctx, addresses...), s.far.Delete(ctx, addresses...))
}

func (s *Store) Clear(ctx context.Context) error {
	return errors.Join(s.near.Clear(ctx), s.far.Clear(ctx))
}
