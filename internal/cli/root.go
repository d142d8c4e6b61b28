// Package cli implements the garage-resolve command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/garage-geo/internal/app"
	"github.com/mohammed-shakir/garage-geo/internal/core/config"
	"github.com/mohammed-shakir/garage-geo/internal/logger"
)

var Version = "dev"

type rootOptions struct {
	out, errOut io.Writer
	appOpts     app.Options

	provider    string
	backend     string
	redisAddr   string
	gazetteer   string
	workers     int
	h3Res       int
	minInterval time.Duration
	timeout     time.Duration
	warnRatio   float64
	logLevel    string
}

// NewRootCmd returns the garage-resolve command tree writing to out and errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	return newRootCmd(out, errOut, app.Options{})
}

func newRootCmd(out, errOut io.Writer, appOpts app.Options) *cobra.Command {
	o := &rootOptions{out: out, errOut: errOut, appOpts: appOpts}

	root := &cobra.Command{
		Use:   "garage-resolve",
		Short: "resolve garage addresses to Seoul districts or coordinates",
		Long: `
garage-resolve places call-taxi garage addresses on the map. An address that
names one of the Seoul districts (구) takes that district's centre; anything
else is sent to the geocoder once and the answer, found or not, is cached.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	f := root.PersistentFlags()
	f.StringVar(&o.provider, "provider", "", "geocode provider (nominatim, google, kakao, none)")
	f.StringVar(&o.backend, "cache", "", "cache backend (memory, lru, redis, tiered)")
	f.StringVar(&o.redisAddr, "redis-addr", "", "redis address for the redis and tiered caches")
	f.StringVar(&o.gazetteer, "gazetteer", "", "JSON district table replacing the built-in Seoul one")
	f.IntVar(&o.workers, "workers", 1, "parallel resolution workers")
	f.IntVar(&o.h3Res, "h3-res", 9, "H3 resolution for location cells")
	f.DurationVar(&o.minInterval, "min-interval", time.Second, "minimum delay between geocode requests")
	f.DurationVar(&o.timeout, "timeout", 5*time.Second, "per-request geocode timeout")
	f.Float64Var(&o.warnRatio, "warn-ratio", 0.2, "warn when the unresolved share of a batch exceeds this")
	f.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newResolveCmd(o),
		newBatchCmd(o),
		newDistrictsCmd(o),
		newCacheCmd(o),
	)
	return root
}

// config starts from the environment and applies the flags the user set.
func (o *rootOptions) config(cmd *cobra.Command) config.Config {
	cfg := config.FromEnv()
	if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	f := cmd.Flags()
	if f.Changed("provider") {
		cfg.Geocode.Provider = o.provider
	}
	if f.Changed("cache") {
		cfg.Cache.Backend = o.backend
	}
	if f.Changed("redis-addr") {
		cfg.Cache.RedisAddr = o.redisAddr
	}
	if f.Changed("gazetteer") {
		cfg.GazetteerFile = o.gazetteer
	}
	if f.Changed("workers") && o.workers > 0 {
		cfg.Workers = o.workers
	}
	if f.Changed("h3-res") {
		cfg.H3Res = o.h3Res
	}
	if f.Changed("min-interval") {
		cfg.Geocode.MinInterval = o.minInterval
	}
	if f.Changed("timeout") {
		cfg.Geocode.Timeout = o.timeout
	}
	if f.Changed("warn-ratio") {
		cfg.UnresolvedWarnRatio = o.warnRatio
	}
	if f.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	// the CLI does not serve or consume anything
	cfg.Metrics.Enabled = false
	cfg.Invalidation.Enabled = false
	return cfg
}

func (o *rootOptions) logger(cfg config.Config) *slog.Logger {
	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   true,
		Component: "cli",
		Session:   logger.NewID(),
	}, o.errOut)
	return logger.NewSlog(&zl)
}

func (o *rootOptions) open(cmd *cobra.Command) (*app.App, config.Config, error) {
	cfg := o.config(cmd)
	a, err := app.New(cmd.Context(), cfg, o.logger(cfg), o.appOpts)
	if err != nil {
		return nil, cfg, err
	}
	return a, cfg, nil
}

func closeApp(a *app.App, errOut io.Writer) {
	if err := a.Close(); err != nil {
		fmt.Fprintf(errOut, "close: %v\n", err)
	}
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, version string) int {
	Version = version
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "garage-resolve: %v\n", err)
		return 1
	}
	return 0
}
