package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammed-shakir/garage-geo/internal/app"
	"github.com/mohammed-shakir/garage-geo/internal/cache"
	"github.com/mohammed-shakir/garage-geo/internal/core/config"
	"github.com/mohammed-shakir/garage-geo/internal/core/health"
	"github.com/mohammed-shakir/garage-geo/internal/core/observability"
	"github.com/mohammed-shakir/garage-geo/internal/core/router"
	"github.com/mohammed-shakir/garage-geo/internal/core/server"
	"github.com/mohammed-shakir/garage-geo/internal/logger"
	"github.com/mohammed-shakir/garage-geo/internal/metrics"
	"github.com/mohammed-shakir/garage-geo/pkg/invalidation/kafka"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// overriding provider via flag
	providerFlag := flag.String("provider", "", "geocode provider (nominatim, google, kakao, none)")
	flag.Parse()

	cfg := config.FromEnv()
	if *providerFlag != "" {
		cfg.Geocode.Provider = strings.TrimSpace(*providerFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "resolver-server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting resolver server",
		"addr", cfg.Addr,
		"version", Version,
		"provider", cfg.Geocode.Provider,
		"cache", cfg.Cache.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reg prometheus.Registerer
	opts := server.Options{Addr: cfg.Addr}
	if cfg.Metrics.Enabled {
		p := metrics.Init(metrics.Config{
			Addr:     cfg.Metrics.Addr,
			Path:     cfg.Metrics.Path,
			Provider: cfg.Geocode.Provider,
			Cache:    cfg.Cache.Backend,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				Branch:    os.Getenv("BUILD_BRANCH"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		reg = p.Registerer()
		opts.Metrics = p.Handler()

		if p.Separate(cfg.Addr) {
			go func() {
				if err := p.Serve(ctx, appLog); err != nil {
					appLog.Error("metrics server exited", "err", err)
				}
			}()
		}
	} else {
		observability.Init(nil, false)
	}

	a, err := app.New(ctx, cfg, appLog, app.Options{})
	if err != nil {
		appLog.Error("resolver setup failed", "err", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			appLog.Warn("close failed", "err", err)
		}
	}()

	opts.Checks = append(opts.Checks, health.Check{
		Name:  "cache",
		Probe: func(ctx context.Context) error { return cache.Ping(ctx, a.Store) },
	})

	inv := kafka.New(kafka.FromConfig(cfg.Invalidation), a.Store, kafka.Options{
		Logger:   appLog.With("component", "invalidation"),
		Register: reg,
	})
	if inv.Enabled() {
		if err := inv.Start(ctx); err != nil {
			appLog.Error("invalidation runner failed to start", "err", err)
			return 1
		}
		defer inv.Stop()
		opts.Checks = append(opts.Checks, health.Check{Name: "invalidation", Probe: inv.Probe})
	}

	api := router.New(a.Resolver, a.Gazetteer, appLog)
	if err := server.Run(ctx, appLog, api, opts); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
