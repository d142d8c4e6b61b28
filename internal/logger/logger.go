// Package logger builds the zerolog logger and carries resolution fields in context.
package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level   string
	Console bool
	SampleN int
	// Session and Component are stamped on every line when set.
	Session   string
	Component string
}

// Field names a context value copied onto log lines.
type Field string

const (
	FieldRequestID Field = "request_id"
	FieldSession   Field = "session"
	FieldComponent Field = "component"
	FieldProvider  Field = "provider"
	FieldCache     Field = "cache"
	FieldOutcome   Field = "outcome"
)

// fields in the order they are written
var ctxFields = []Field{FieldRequestID, FieldSession, FieldComponent, FieldProvider, FieldCache, FieldOutcome}

type ctxKey Field

// With tags ctx with one log field; an empty value leaves ctx unchanged.
func With(ctx context.Context, f Field, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey(f), v)
}

// WithRequestID tags ctx with reqID, generating one when empty.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		reqID = NewID()
	}
	return With(ctx, FieldRequestID, reqID)
}

// WithCacheStatus tags the context with "hit" or "miss".
func WithCacheStatus(ctx context.Context, status string) context.Context {
	return With(ctx, FieldCache, status)
}

// WithSession tags the context with a batch or CLI run id.
func WithSession(ctx context.Context, session string) context.Context {
	return With(ctx, FieldSession, session)
}

func WithComponent(ctx context.Context, component string) context.Context {
	return With(ctx, FieldComponent, component)
}

// WithProvider names the geocoder that produced or failed a lookup.
func WithProvider(ctx context.Context, provider string) context.Context {
	return With(ctx, FieldProvider, provider)
}

func WithOutcome(ctx context.Context, outcome string) context.Context {
	return With(ctx, FieldOutcome, outcome)
}

func NewID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func Build(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "msg"
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	base := zerolog.New(out)
	if cfg.SampleN > 0 {
		base = base.Sample(&zerolog.BasicSampler{N: uint32(min(cfg.SampleN, math.MaxUint32))})
	}

	zc := base.With().Timestamp()
	if cfg.Session != "" {
		zc = zc.Str(string(FieldSession), cfg.Session)
	}
	if cfg.Component != "" {
		zc = zc.Str(string(FieldComponent), cfg.Component)
	}
	return zc.Logger()
}

// FromContext returns a child of parent carrying the context's fields.
func FromContext(ctx context.Context, parent *zerolog.Logger) *zerolog.Logger {
	base := zerolog.New(io.Discard)
	if parent != nil {
		base = *parent
	}
	w := base.With()
	for _, f := range ctxFields {
		if s, ok := ctx.Value(ctxKey(f)).(string); ok && s != "" {
			w = w.Str(string(f), s)
		}
	}
	l := w.Logger()
	return &l
}
