// Package metrics owns the Prometheus registry the resolver service exposes.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/garage-geo/internal/core/observability"
)

const DefaultPath = "/metrics"

type BuildInfo struct {
	Version   string
	Revision  string
	Branch    string
	BuildDate string
}

type Config struct {
	// Addr is a dedicated metrics listener; empty serves on the API listener.
	Addr     string
	Path     string
	Provider string
	Cache    string
	Build    BuildInfo
}

type Provider struct {
	cfg Config
	reg *prometheus.Registry
}

// Init builds the registry with runtime collectors, build info and every
// resolver series from observability, and turns recording on.
func Init(cfg Config) *Provider {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build and wiring of this binary (value is always 1).",
		},
		[]string{"version", "revision", "branch", "build_date", "geocode_provider", "cache_backend"},
	)
	reg.MustRegister(build)
	v := cfg.Build
	if v.Version == "" {
		v.Version = "dev"
	}
	build.WithLabelValues(v.Version, v.Revision, v.Branch, v.BuildDate, cfg.Provider, cfg.Cache).Set(1)

	observability.Init(reg, true)
	return &Provider{cfg: cfg, reg: reg}
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Path() string { return p.cfg.Path }

// Separate reports whether metrics need their own listener next to apiAddr.
func (p *Provider) Separate(apiAddr string) bool {
	return p.cfg.Addr != "" && p.cfg.Addr != apiAddr
}

// Mux serves the registry at the configured path and nothing else.
func (p *Provider) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(p.cfg.Path, p.Handler())
	return mux
}

// Serve runs the dedicated listener until ctx ends.
func (p *Provider) Serve(ctx context.Context, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", p.cfg.Addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", p.cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:           p.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", "addr", ln.Addr().String(), "path", p.cfg.Path)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		return nil
	}
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.reg.MustRegister(c)
	}
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }
