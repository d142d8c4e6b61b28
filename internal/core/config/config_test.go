package config

import (
	"reflect"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"GEOCODE_TIMEOUT", "GEOCODE_MIN_INTERVAL", "CACHE_BACKEND", "RESOLVE_WORKERS", "H3_RES"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Geocode.Timeout != 5*time.Second {
		t.Fatalf("timeout=%v want 5s", c.Geocode.Timeout)
	}
	if c.Geocode.MinInterval != time.Second {
		t.Fatalf("min interval=%v want 1s", c.Geocode.MinInterval)
	}
	if c.Cache.Backend != "memory" || c.Workers != 1 || c.H3Res != 9 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("GEOCODE_PROVIDER", "Kakao")
	t.Setenv("GEOCODE_TIMEOUT", "2s")
	t.Setenv("GEOCODE_MIN_INTERVAL", "250ms")
	t.Setenv("CACHE_BACKEND", "TIERED")
	t.Setenv("CACHE_TTL_FAILED", "1h")
	t.Setenv("RESOLVE_WORKERS", "4")
	t.Setenv("INVALIDATION_ENABLED", "yes")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	c := FromEnv()
	if c.Geocode.Provider != "kakao" {
		t.Fatalf("provider=%q", c.Geocode.Provider)
	}
	if c.Geocode.Timeout != 2*time.Second || c.Geocode.MinInterval != 250*time.Millisecond {
		t.Fatalf("geocode cfg=%+v", c.Geocode)
	}
	if c.Cache.Backend != "tiered" || c.Cache.TTLFailed != time.Hour {
		t.Fatalf("cache cfg=%+v", c.Cache)
	}
	if c.Workers != 4 || !c.Invalidation.Enabled {
		t.Fatalf("workers=%d invalidation=%v", c.Workers, c.Invalidation.Enabled)
	}
	if got := Brokers(c.Invalidation.Brokers); !reflect.DeepEqual(got, []string{"k1:9092", "k2:9092"}) {
		t.Fatalf("brokers=%v", got)
	}
}

func TestFromEnv_ClampsInvalid(t *testing.T) {
	t.Setenv("H3_RES", "22")
	t.Setenv("RESOLVE_WORKERS", "0")
	t.Setenv("UNRESOLVED_WARN_RATIO", "3")
	t.Setenv("GEOCODE_TIMEOUT", "soon")

	c := FromEnv()
	if c.H3Res != 9 || c.Workers != 1 || c.UnresolvedWarnRatio != 0.2 {
		t.Fatalf("clamp failed: res=%d workers=%d ratio=%v", c.H3Res, c.Workers, c.UnresolvedWarnRatio)
	}
	if c.Geocode.Timeout != 5*time.Second {
		t.Fatalf("bad duration should fall back, got %v", c.Geocode.Timeout)
	}
}
