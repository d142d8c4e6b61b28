// Package app wires configuration into a ready resolver shared by the server
// and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mohammed-shakir/garage-geo/internal/cache"
	"github.com/mohammed-shakir/garage-geo/internal/cache/backends"
	"github.com/mohammed-shakir/garage-geo/internal/core/config"
	"github.com/mohammed-shakir/garage-geo/internal/core/httpclient"
	"github.com/mohammed-shakir/garage-geo/internal/gazetteer"
	"github.com/mohammed-shakir/garage-geo/internal/geocode"
	h3mapper "github.com/mohammed-shakir/garage-geo/internal/mapper/h3"
	"github.com/mohammed-shakir/garage-geo/internal/resolvedevents"
	"github.com/mohammed-shakir/garage-geo/internal/resolver"
)

type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Gazetteer *gazetteer.Gazetteer
	Store     cache.Store
	Client    *geocode.Client
	Resolver  *resolver.Resolver
	Events    *resolvedevents.Publisher

	closers []func() error
}

type Options struct {
	// Provider replaces the configured geocoder.
	Provider   geocode.Provider
	HTTPClient *http.Client
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	g, err := gazetteer.FromFileOrDefault(cfg.GazetteerFile)
	if err != nil {
		return nil, err
	}
	a.Gazetteer = g

	p := opts.Provider
	if p == nil {
		hc := opts.HTTPClient
		if hc == nil {
			hc = httpclient.NewOutbound(2 * cfg.Geocode.Timeout)
		}
		p, err = geocode.New(cfg.Geocode.Provider, geocode.Settings{
			BaseURL:   cfg.Geocode.BaseURL,
			APIKey:    cfg.Geocode.APIKey,
			UserAgent: cfg.Geocode.UserAgent,
			Language:  cfg.Geocode.Language,
			Region:    cfg.Geocode.Region,
		}, hc, logger)
		if err != nil {
			return nil, fmt.Errorf("geocode provider: %w", err)
		}
	}
	a.Client = geocode.NewClient(p, cfg.Geocode.MinInterval, cfg.Geocode.Timeout)

	store, closeStore, err := backends.Open(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, closeStore)

	ropts := []resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithWorkers(cfg.Workers),
		resolver.WithCells(h3mapper.New(), cfg.H3Res),
	}
	if cfg.Events.Enabled {
		pub, err := resolvedevents.NewPublisher(config.Brokers(cfg.Events.Brokers), cfg.Events.Topic, 0, logger)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Events = pub
		a.closers = append(a.closers, pub.Close)
		ropts = append(ropts, resolver.WithObserver(pub.Observe))
	}

	res, err := resolver.New(g, a.Client, store, ropts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Resolver = res

	logger.Info("resolver ready",
		"provider", a.Client.Provider(),
		"cache", cache.Backend(store),
		"districts", g.Len(),
		"workers", cfg.Workers,
		"min_interval", cfg.Geocode.MinInterval.String(),
		"timeout", cfg.Geocode.Timeout.String())
	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
