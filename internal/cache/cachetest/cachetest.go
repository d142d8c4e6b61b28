// Package cachetest checks cache.Store implementations against the shared contract.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/mohammed-shakir/garage-geo/internal/cache"
	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

// Conformance exercises s; s must start empty.
func Conformance(t *testing.T, s cache.Store) {
	t.Helper()
	ctx := context.Background()

	found := cache.Entry{
		Address:    "서울 성동구 용답동 250",
		Found:      true,
		Coordinate: model.Coordinate{Lat: 37.5614, Lng: 127.0507},
		Provider:   "stub",
		StoredAt:   time.Date(2025, 7, 24, 9, 0, 0, 0, time.UTC),
	}
	failed := cache.Entry{
		Address:  "알수없는주소 999",
		Found:    false,
		Failure:  "no_match",
		StoredAt: time.Date(2025, 7, 24, 9, 0, 1, 0, time.UTC),
	}

	if _, ok, err := s.Get(ctx, found.Address); err != nil || ok {
		t.Fatalf("Get on empty store: ok=%v err=%v", ok, err)
	}
	if err := s.Put(ctx, found); err != nil {
		t.Fatalf("Put found: %v", err)
	}
	if err := s.Put(ctx, failed); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := s.Get(ctx, found.Address)
	if err != nil || !ok {
		t.Fatalf("Get found: ok=%v err=%v", ok, err)
	}
	if !got.Found || got.Coordinate != found.Coordinate || got.Provider != "stub" || !got.StoredAt.Equal(found.StoredAt) {
		t.Fatalf("Get found = %+v, want %+v", got, found)
	}

	got, ok, err = s.Get(ctx, failed.Address)
	if err != nil || !ok {
		t.Fatalf("Get failed entry: ok=%v err=%v", ok, err)
	}
	if got.Found || got.Failure != "no_match" {
		t.Fatalf("failure entry = %+v", got)
	}

	// exact-string keying: a whitespace variant is a different key
	if ok, err := s.Contains(ctx, found.Address+" "); err != nil || ok {
		t.Fatalf("Contains variant ok=%v err=%v, want miss", ok, err)
	}
	if ok, err := s.Contains(ctx, found.Address); err != nil || !ok {
		t.Fatalf("Contains ok=%v err=%v, want hit", ok, err)
	}

	if err := s.Delete(ctx, found.Address); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := s.Contains(ctx, found.Address); ok {
		t.Fatalf("entry present after Delete")
	}
	if ok, _ := s.Contains(ctx, failed.Address); !ok {
		t.Fatalf("Delete removed an unrelated entry")
	}

	if err := s.Put(ctx, found); err != nil {
		t.Fatalf("Put again: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, a := range []string{found.Address, failed.Address} {
		if ok, _ := s.Contains(ctx, a); ok {
			t.Fatalf("%q present after Clear", a)
		}
	}
}
