// Package backends builds the configured geocode cache.
package backends

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mohammed-shakir/garage-geo/internal/cache"
	"github.com/mohammed-shakir/garage-geo/internal/cache/geostore"
	"github.com/mohammed-shakir/garage-geo/internal/cache/lrustore"
	"github.com/mohammed-shakir/garage-geo/internal/cache/memstore"
	"github.com/mohammed-shakir/garage-geo/internal/cache/redisstore"
	"github.com/mohammed-shakir/garage-geo/internal/cache/tiered"
	"github.com/mohammed-shakir/garage-geo/internal/core/config"
)

const (
	Memory = "memory"
	LRU    = "lru"
	Redis  = "redis"
	Tiered = "tiered"
)

// Open returns the store named by cfg.Backend and a close func for any
// connection it holds. An unknown backend falls back to memory.
func Open(ctx context.Context, cfg config.CacheCfg, logger *slog.Logger) (cache.Store, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", Memory:
		return memstore.New(), noop, nil

	case LRU:
		s, err := lrustore.New(cfg.LRUSize)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	case Redis:
		far, cli, err := openRedis(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return far, cli.Close, nil

	case Tiered:
		far, cli, err := openRedis(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		near, err := lrustore.New(cfg.LRUSize)
		if err != nil {
			_ = cli.Close()
			return nil, noop, err
		}
		return tiered.New(near, far, logger), cli.Close, nil

	default:
		logger.Warn("unknown cache backend, using memory", "backend", cfg.Backend)
		return memstore.New(), noop, nil
	}
}

func openRedis(ctx context.Context, cfg config.CacheCfg) (*geostore.Store, *redisstore.Client, error) {
	cli, err := redisstore.New(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("open redis cache: %w", err)
	}
	ttl := geostore.TTLs{Found: cfg.TTLFound, Failed: cfg.TTLFailed}
	return geostore.New(cli, ttl, cfg.OpTimeout), cli, nil
}
