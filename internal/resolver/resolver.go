// Package resolver turns free-text facility addresses into locations.
//
// An address is first matched against the district gazetteer by substring.
// Only when no district name occurs in the text is the geocoder consulted,
// and every geocode outcome, success or failure, is cached under the exact
// input string so the same text never reaches the provider twice.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mohammed-shakir/garage-geo/internal/cache"
	"github.com/mohammed-shakir/garage-geo/internal/core/model"
	"github.com/mohammed-shakir/garage-geo/internal/core/observability"
	"github.com/mohammed-shakir/garage-geo/internal/gazetteer"
	"github.com/mohammed-shakir/garage-geo/internal/geocode"
	"github.com/mohammed-shakir/garage-geo/internal/logger"
	"github.com/mohammed-shakir/garage-geo/internal/mapper"
)

type Resolver struct {
	gaz      *gazetteer.Gazetteer
	client   *geocode.Client
	store    cache.Store
	backend  string
	cells    mapper.Interface
	res      int
	workers  int
	logger   *slog.Logger
	observer func(context.Context, model.ResolvedLocation)
	now      func() time.Time

	flight singleflight.Group
}

type Option func(*Resolver)

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithWorkers sets how many addresses a batch resolves at once. All workers
// share the cache and the client's rate gate.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithCells attaches the H3 cell at res to every resolved location.
func WithCells(m mapper.Interface, res int) Option {
	return func(r *Resolver) { r.cells, r.res = m, res }
}

// WithObserver is called after every resolution that did not come from the cache.
func WithObserver(fn func(context.Context, model.ResolvedLocation)) Option {
	return func(r *Resolver) { r.observer = fn }
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func New(g *gazetteer.Gazetteer, client *geocode.Client, store cache.Store, opts ...Option) (*Resolver, error) {
	if g == nil {
		return nil, errors.New("resolver: gazetteer is required")
	}
	if client == nil {
		return nil, errors.New("resolver: geocode client is required")
	}
	if store == nil {
		return nil, errors.New("resolver: cache store is required")
	}
	r := &Resolver{
		gaz:     g,
		client:  client,
		store:   store,
		backend: cache.Backend(store),
		workers: 1,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

func (r *Resolver) Gazetteer() *gazetteer.Gazetteer { return r.gaz }
func (r *Resolver) Cache() cache.Store              { return r.store }

// ResolveByDistrict reports the first district in g whose name occurs in text.
func ResolveByDistrict(text string, g *gazetteer.Gazetteer) (gazetteer.District, bool) {
	return g.Match(text)
}

// ResolveByGeocode returns the cached coordinate for address, or asks the
// provider once and caches the outcome. Failures come back as *geocode.Error
// and match the geocode.Err* sentinels with errors.Is. A failure caused by
// ctx ending before the provider answered wraps geocode.ErrNotAttempted and
// is not cached.
func (r *Resolver) ResolveByGeocode(ctx context.Context, address string) (model.Coordinate, error) {
	e, _, err := r.lookup(ctx, address)
	if err != nil {
		return model.Coordinate{}, err
	}
	if !e.Found {
		return model.Coordinate{}, entryError(e)
	}
	return e.Coordinate, nil
}

// Resolve maps one address to a location. The error is non-nil only when
// ctx ended before the address could be resolved.
func (r *Resolver) Resolve(ctx context.Context, address string) (model.ResolvedLocation, error) {
	return r.resolveText(ctx, address, address)
}

// resolveText matches districts against matchText and geocodes address.
func (r *Resolver) resolveText(ctx context.Context, matchText, address string) (model.ResolvedLocation, error) {
	loc := model.ResolvedLocation{Address: address}

	if d, ok := r.gaz.Match(matchText); ok {
		loc.Outcome = model.OutcomeDistrict
		loc.District = d.Name
		loc.Coordinate = d.Center
		r.finish(ctx, &loc)
		return loc, nil
	}

	e, cached, err := r.lookup(ctx, address)
	switch {
	case errors.Is(err, geocode.ErrNotAttempted):
		return model.ResolvedLocation{}, err
	case err != nil:
		// malformed input never reaches the cache
		loc.Outcome = model.OutcomeUnresolved
		loc.Reason = geocode.KindOf(err).String()
	case e.Found:
		loc.Outcome = model.OutcomeGeocoded
		loc.Coordinate = e.Coordinate
		loc.Provider = e.Provider
	default:
		loc.Outcome = model.OutcomeUnresolved
		loc.Reason = e.Failure
		loc.Provider = e.Provider
	}
	loc.Cached = cached
	r.finish(ctx, &loc)
	return loc, nil
}

func (r *Resolver) finish(ctx context.Context, loc *model.ResolvedLocation) {
	if loc.Resolved() && r.cells != nil {
		if cell, err := r.cells.CellFor(loc.Coordinate, r.res); err == nil {
			loc.Cell = cell
		} else {
			r.logger.DebugContext(ctx, "h3 cell skipped", "address", loc.Address, "err", err)
		}
	}
	observability.IncResolution(string(loc.Outcome))

	if loc.Outcome == model.OutcomeUnresolved {
		ctx = logger.WithOutcome(logger.WithProvider(ctx, loc.Provider), string(loc.Outcome))
		r.logger.WarnContext(ctx, "address unresolved",
			"address", loc.Address, "reason", loc.Reason, "cached", loc.Cached)
	}
	if r.observer != nil && !loc.Cached {
		r.observer(ctx, *loc)
	}
}

type flightResult struct {
	entry  cache.Entry
	cached bool
}

// lookup returns the cache entry for address, filling it from the provider on
// a miss. Concurrent lookups of one address share a single provider call, and
// only the caller that made it sees a fresh result.
func (r *Resolver) lookup(ctx context.Context, address string) (cache.Entry, bool, error) {
	if strings.TrimSpace(address) == "" {
		return cache.Entry{}, false, geocode.NewError(geocode.KindMalformedInput, "", "empty address", nil)
	}

	if e, ok := r.cached(ctx, address); ok {
		return e, true, nil
	}
	observability.IncCacheMiss(r.backend)

	// only the caller whose function runs reaches the provider; the others
	// receive its answer and report it as cached
	leader := false
	v, err, _ := r.flight.Do(address, func() (any, error) {
		leader = true
		// a flight that just finished may have filled the entry
		if e, ok := r.cached(ctx, address); ok {
			return flightResult{entry: e, cached: true}, nil
		}

		res, gerr := r.client.Lookup(ctx, address)
		if errors.Is(gerr, geocode.ErrNotAttempted) {
			return nil, gerr
		}

		e := cache.Entry{Address: address, Provider: r.client.Provider(), StoredAt: r.now().UTC()}
		if gerr != nil {
			e.Failure = geocode.KindOf(gerr).String()
		} else {
			e.Found = true
			e.Coordinate = res.Coordinate
			e.Provider = res.Provider
		}

		// the provider answered; keep the outcome even if the caller is leaving
		if perr := r.store.Put(context.WithoutCancel(ctx), e); perr != nil {
			r.logger.WarnContext(logger.WithProvider(ctx, e.Provider), "geocode cache write failed", "address", address, "err", perr)
		}
		return flightResult{entry: e}, nil
	})
	if err != nil {
		return cache.Entry{}, false, err
	}
	fr := v.(flightResult)
	return fr.entry, fr.cached || !leader, nil
}

func (r *Resolver) cached(ctx context.Context, address string) (cache.Entry, bool) {
	e, ok, err := r.store.Get(ctx, address)
	if err != nil {
		// a broken cache degrades to a miss
		r.logger.WarnContext(ctx, "geocode cache read failed", "address", address, "err", err)
		return cache.Entry{}, false
	}
	if !ok {
		return cache.Entry{}, false
	}
	observability.IncCacheHit(r.backend)
	r.logger.DebugContext(logger.WithCacheStatus(ctx, "hit"), "geocode cache hit", "address", address, "found", e.Found)
	return e, true
}

// Forget drops cached outcomes so the next resolution asks the provider again.
// With no addresses the whole cache is cleared.
func (r *Resolver) Forget(ctx context.Context, addresses ...string) error {
	if len(addresses) == 0 {
		if err := r.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear geocode cache: %w", err)
		}
		return nil
	}
	if err := r.store.Delete(ctx, addresses...); err != nil {
		return fmt.Errorf("delete geocode cache entries: %w", err)
	}
	return nil
}

func entryError(e cache.Entry) error {
	return geocode.NewError(geocode.ParseKind(e.Failure), e.Provider, "cached failure", nil)
}
