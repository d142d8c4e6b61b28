package geocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/mohammed-shakir/garage-geo/internal/core/observability"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultMinInterval = time.Second
)

// ErrNotAttempted marks a lookup that never reached the provider because the
// caller gave up while waiting for the rate gate. It must not be cached.
var ErrNotAttempted = errors.New("geocode: request not attempted")

// Client puts one global rate gate in front of a provider and bounds every
// request with a timeout. Share a single Client between workers.
type Client struct {
	provider Provider
	limiter  *rate.Limiter
	timeout  time.Duration
}

func NewClient(p Provider, minInterval, timeout time.Duration) *Client {
	lim := rate.NewLimiter(rate.Inf, 1)
	if minInterval > 0 {
		lim = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{provider: p, limiter: lim, timeout: timeout}
}

func (c *Client) Provider() string { return c.provider.Name() }

// Lookup waits for the gate with the caller's context, then issues one request
// bounded by the client timeout.
func (c *Client) Lookup(ctx context.Context, address string) (Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNotAttempted, err)
	}

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	res, err := c.provider.Geocode(rctx, address)
	dur := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			// caller cancelled mid-flight; the provider never gave an answer
			return Result{}, fmt.Errorf("%w: %w", ErrNotAttempted, ctx.Err())
		}
		kind := KindOf(err)
		if errors.Is(rctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		var ge *Error
		if !errors.As(err, &ge) || ge.Kind != kind {
			err = NewError(kind, c.provider.Name(), "request failed", err)
		}
		observability.ObserveGeocode(c.provider.Name(), KindOf(err).String(), dur.Seconds())
		return Result{}, err
	}
	observability.ObserveGeocode(c.provider.Name(), "ok", dur.Seconds())
	if res.Provider == "" {
		res.Provider = c.provider.Name()
	}
	return res, nil
}
