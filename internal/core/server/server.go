package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/garage-geo/internal/core/health"
	middleware "github.com/mohammed-shakir/garage-geo/internal/core/middleware"
	"github.com/mohammed-shakir/garage-geo/internal/core/router"
)

type Options struct {
	Addr string
	// Metrics serves /metrics on the API listener; nil uses the default registry.
	Metrics http.Handler
	Checks  []health.Check
}

// Handler builds the chi router for the API.
func Handler(logger *slog.Logger, api *router.API, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	metricsHandler := opts.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(2*time.Second, opts.Checks...))
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	api.Mount(r)
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, logger *slog.Logger, api *router.API, opts Options) error {
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           Handler(logger, api, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// a POST batch waits on the geocode rate gate
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", opts.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
