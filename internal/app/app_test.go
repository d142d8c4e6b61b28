package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/garage-geo/internal/cache"
	"github.com/mohammed-shakir/garage-geo/internal/core/config"
	"github.com/mohammed-shakir/garage-geo/internal/geocode"
)

func baseConfig() config.Config {
	return config.Config{
		H3Res:   9,
		Workers: 1,
		Geocode: config.GeocodeCfg{Provider: "none", Timeout: time.Second},
		Cache:   config.CacheCfg{Backend: "memory"},
	}
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNew_DefaultsResolveDistricts(t *testing.T) {
	a, err := New(context.Background(), baseConfig(), quiet(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	if a.Client.Provider() != "none" || cache.Backend(a.Store) != "memory" || a.Gazetteer.Len() != 25 {
		t.Fatalf("unexpected wiring: provider=%s cache=%s districts=%d",
			a.Client.Provider(), cache.Backend(a.Store), a.Gazetteer.Len())
	}
	loc, err := a.Resolver.Resolve(context.Background(), "서울 강남구 테헤란로 123")
	if err != nil || loc.District != "강남구" || loc.Cell == "" {
		t.Fatalf("loc=%+v err=%v", loc, err)
	}
}

func TestNew_CustomGazetteerAndRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	path := filepath.Join(t.TempDir(), "districts.json")
	if err := os.WriteFile(path, []byte(`[{"name":"분당구","lat":37.3827,"lng":127.1189}]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := baseConfig()
	cfg.GazetteerFile = path
	cfg.Cache = config.CacheCfg{Backend: "tiered", RedisAddr: mr.Addr(), LRUSize: 8, OpTimeout: time.Second}

	a, err := New(context.Background(), cfg, quiet(), Options{Provider: geocode.Offline{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Gazetteer.Len() != 1 || cache.Backend(a.Store) != "tiered" {
		t.Fatalf("districts=%d cache=%s", a.Gazetteer.Len(), cache.Backend(a.Store))
	}

	loc, _ := a.Resolver.Resolve(context.Background(), "서울 강남구 테헤란로 123")
	if loc.Outcome != "unresolved" {
		t.Fatalf("custom table should not know 강남구: %+v", loc)
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("redis keys=%v want the cached failure", mr.Keys())
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNew_BadGazetteerFile(t *testing.T) {
	cfg := baseConfig()
	cfg.GazetteerFile = filepath.Join(t.TempDir(), "missing.json")
	if _, err := New(context.Background(), cfg, quiet(), Options{}); err == nil {
		t.Fatalf("expected error for missing gazetteer file")
	}
}
