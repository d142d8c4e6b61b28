// Package cache defines the geocode cache contract shared by all backends.
package cache

import (
	"context"
	"time"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

// Entry is the cached outcome of one geocode attempt for an exact address string.
// A failed attempt is cached too, with Found=false and the failure kind.
type Entry struct {
	Address    string           `json:"address"`
	Found      bool             `json:"found"`
	Coordinate model.Coordinate `json:"coordinate"`
	Provider   string           `json:"provider,omitempty"`
	Failure    string           `json:"failure,omitempty"`
	StoredAt   time.Time        `json:"stored_at"`
}

// Store is keyed by the exact input string; no normalisation happens here.
type Store interface {
	Get(ctx context.Context, address string) (Entry, bool, error)
	Put(ctx context.Context, e Entry) error
	Contains(ctx context.Context, address string) (bool, error)
	Delete(ctx context.Context, addresses ...string) error
	Clear(ctx context.Context) error
}

// Backend returns the store's metric label, or "cache" when it has none.
func Backend(s Store) string {
	if n, ok := s.(interface{ Backend() string }); ok {
		return n.Backend()
	}
	return "cache"
}

// Ping checks a store that exposes Ping; other stores are always reachable.
func Ping(ctx context.Context, s Store) error {
	if p, ok := s.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
