package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Driver  string
	Topic   string
	Brokers string
	GroupID string
}

type GeocodeCfg struct {
	Provider    string
	BaseURL     string
	APIKey      string
	UserAgent   string
	Language    string
	Region      string
	Timeout     time.Duration
	MinInterval time.Duration
}

type CacheCfg struct {
	Backend   string
	LRUSize   int
	RedisAddr string
	OpTimeout time.Duration
	TTLFound  time.Duration
	TTLFailed time.Duration
}

type EventsCfg struct {
	Enabled bool
	Topic   string
	Brokers string
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	Addr                string
	LogLevel            string
	LogConsole          bool
	LogSampleN          int
	GazetteerFile       string
	H3Res               int
	Workers             int
	UnresolvedWarnRatio float64
	Geocode             GeocodeCfg
	Cache               CacheCfg
	Events              EventsCfg
	Invalidation        InvalidationCfg
	Metrics             MetricsCfg
}

func FromEnv() Config {
	res := getint("H3_RES", 9)
	if res < 0 || res > 15 {
		res = 9
	}
	workers := getint("RESOLVE_WORKERS", 1)
	if workers < 1 {
		workers = 1
	}
	ratio := getfloat("UNRESOLVED_WARN_RATIO", 0.2)
	if ratio < 0 || ratio > 1 {
		ratio = 0.2
	}
	brokers := getenv("KAFKA_BROKERS", "localhost:9092")

	return Config{
		Addr:                getenv("ADDR", ":8090"),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		LogConsole:          getbool("LOG_CONSOLE", false),
		LogSampleN:          getint("LOG_SAMPLE_N", 0),
		GazetteerFile:       getenv("GAZETTEER_FILE", ""),
		H3Res:               res,
		Workers:             workers,
		UnresolvedWarnRatio: ratio,
		Geocode: GeocodeCfg{
			Provider:    strings.ToLower(getenv("GEOCODE_PROVIDER", "nominatim")),
			BaseURL:     getenv("GEOCODE_BASE_URL", ""),
			APIKey:      getenv("GEOCODE_API_KEY", ""),
			UserAgent:   getenv("GEOCODE_USER_AGENT", "garage-geo/1.0"),
			Language:    getenv("GEOCODE_LANGUAGE", "ko"),
			Region:      getenv("GEOCODE_REGION", "kr"),
			Timeout:     getduration("GEOCODE_TIMEOUT", 5*time.Second),
			MinInterval: getduration("GEOCODE_MIN_INTERVAL", time.Second),
		},
		Cache: CacheCfg{
			Backend:   strings.ToLower(getenv("CACHE_BACKEND", "memory")),
			LRUSize:   getint("CACHE_LRU_SIZE", 4096),
			RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
			OpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
			TTLFound:  getduration("CACHE_TTL_FOUND", 0),
			TTLFailed: getduration("CACHE_TTL_FAILED", 24*time.Hour),
		},
		Events: EventsCfg{
			Enabled: getbool("EVENTS_ENABLED", false),
			Topic:   getenv("EVENTS_TOPIC", "address-resolutions"),
			Brokers: brokers,
		},
		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Driver:  getenv("INVALIDATION_DRIVER", "none"),
			Topic:   getenv("KAFKA_TOPIC", "geocode-invalidation"),
			Brokers: brokers,
			GroupID: getenv("KAFKA_GROUP_ID", "geocode-invalidator"),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", false),
			Addr:    getenv("METRICS_ADDR", ""),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
	}
}

// Brokers splits a comma separated broker list, dropping blanks.
func Brokers(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
