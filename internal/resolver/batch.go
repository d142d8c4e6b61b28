package resolver

import (
	"context"
	"sync"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

type batchConfig struct {
	progress func(done, total int)
}

type BatchOption func(*batchConfig)

// WithProgress is called after each distinct item finishes. Calls are serialised.
func WithProgress(fn func(done, total int)) BatchOption {
	return func(c *batchConfig) { c.progress = fn }
}

// ResolveBatch resolves each distinct address once. A failed address becomes
// an unresolved entry and never stops the batch. If ctx ends first, the
// addresses finished so far are returned with ctx's error.
func (r *Resolver) ResolveBatch(ctx context.Context, addresses []string, opts ...BatchOption) (map[string]model.ResolvedLocation, error) {
	unique := dedupe(addresses)
	out := make(map[string]model.ResolvedLocation, len(unique))

	var mu sync.Mutex
	err := r.each(ctx, len(unique), opts, func(ctx context.Context, i int) error {
		loc, err := r.Resolve(ctx, unique[i])
		if err != nil {
			return err
		}
		mu.Lock()
		out[unique[i]] = loc
		mu.Unlock()
		return nil
	})
	return out, err
}

// ResolveRecords places every record. Records carrying a valid coordinate
// are kept as provided; the rest match districts on name and address and
// geocode by address. On interruption the finished prefix is not guaranteed;
// unfinished records are omitted.
func (r *Resolver) ResolveRecords(ctx context.Context, recs []model.AddressRecord, opts ...BatchOption) ([]model.PlacedRecord, error) {
	placed := make([]*model.PlacedRecord, len(recs))

	err := r.each(ctx, len(recs), opts, func(ctx context.Context, i int) error {
		rec := recs[i]
		if rec.Coordinate != nil && rec.Coordinate.Valid() {
			loc := model.ResolvedLocation{
				Address:    rec.Address,
				Outcome:    model.OutcomeProvided,
				Coordinate: *rec.Coordinate,
			}
			r.finish(ctx, &loc)
			placed[i] = &model.PlacedRecord{Record: rec, Location: loc}
			return nil
		}
		loc, err := r.resolveText(ctx, rec.MatchText(), rec.Address)
		if err != nil {
			return err
		}
		placed[i] = &model.PlacedRecord{Record: rec, Location: loc}
		return nil
	})

	out := make([]model.PlacedRecord, 0, len(recs))
	for _, p := range placed {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, err
}

// each runs fn for 0..n-1 on the configured number of workers and stops
// handing out work once ctx ends or fn fails.
func (r *Resolver) each(ctx context.Context, n int, opts []BatchOption, fn func(context.Context, int) error) error {
	var cfg batchConfig
	for _, o := range opts {
		o(&cfg)
	}

	var (
		mu   sync.Mutex
		done int
	)
	tick := func() {
		if cfg.progress == nil {
			return
		}
		mu.Lock()
		done++
		cfg.progress(done, n)
		mu.Unlock()
	}

	if r.workers <= 1 || n <= 1 {
		for i := range n {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				if cerr := ctx.Err(); cerr != nil {
					return cerr
				}
				return err
			}
			tick()
		}
		return nil
	}

	workerN := min(r.workers, n)
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		errOnce  sync.Once
		firstErr error
	)
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workerN)

	for range workerN {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if wctx.Err() != nil {
					continue
				}
				if err := fn(wctx, i); err != nil {
					errOnce.Do(func() { firstErr = err })
					cancel()
					continue
				}
				tick()
			}
		}()
	}

feed:
	for i := range n {
		select {
		case jobs <- i:
		case <-wctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	return firstErr
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
