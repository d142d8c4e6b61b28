// Package geocode turns free-text addresses into coordinates through external providers.
package geocode

import (
	"context"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

// Result is the best match a provider returned for a query.
type Result struct {
	Coordinate  model.Coordinate
	DisplayName string
	Provider    string
}

// Provider issues one lookup per call and returns at most one best match.
// A query without results fails with a KindNoMatch error.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, address string) (Result, error)
}

// Settings is the provider-independent configuration consumed by factories.
type Settings struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Language  string
	Region    string
}
