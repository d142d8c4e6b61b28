// Package router serves the resolution API.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
	"github.com/mohammed-shakir/garage-geo/internal/gazetteer"
	"github.com/mohammed-shakir/garage-geo/internal/resolver"
)

const (
	MaxBatch     = 1000
	maxBodyBytes = 1 << 20
)

// Resolver is the part of *resolver.Resolver the API needs.
type Resolver interface {
	Resolve(ctx context.Context, address string) (model.ResolvedLocation, error)
	ResolveBatch(ctx context.Context, addresses []string, opts ...resolver.BatchOption) (map[string]model.ResolvedLocation, error)
	Forget(ctx context.Context, addresses ...string) error
}

type API struct {
	res    Resolver
	gaz    *gazetteer.Gazetteer
	logger *slog.Logger
}

func New(res Resolver, gaz *gazetteer.Gazetteer, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{res: res, gaz: gaz, logger: logger}
}

func (a *API) Mount(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/resolve", a.handleResolveOne)
		r.Post("/resolve", a.handleResolveBatch)
		r.Get("/districts", a.handleDistricts)
		r.Delete("/cache", a.handleForget)
	})
}

func (a *API) handleResolveOne(w http.ResponseWriter, r *http.Request) {
	addr := r.URL.Query().Get("address")
	if strings.TrimSpace(addr) == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: address")
		return
	}
	loc, err := a.res.Resolve(r.Context(), addr)
	if err != nil {
		a.logger.WarnContext(r.Context(), "resolve interrupted", "address", addr, "err", err)
		writeError(w, http.StatusServiceUnavailable, "resolution interrupted")
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

type batchRequest struct {
	Addresses []string `json:"addresses"`
}

type batchResponse struct {
	Results []model.ResolvedLocation `json:"results"`
	Summary resolver.Summary         `json:"summary"`
	Partial bool                     `json:"partial,omitempty"`
}

func (a *API) handleResolveBatch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBatch(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := a.res.ResolveBatch(r.Context(), req.Addresses)
	resp := batchResponse{Results: make([]model.ResolvedLocation, 0, len(out))}
	seen := make(map[string]struct{}, len(out))
	for _, addr := range req.Addresses {
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		if loc, ok := out[addr]; ok {
			resp.Results = append(resp.Results, loc)
		}
	}
	resp.Summary = resolver.Summarize(resp.Results)
	if err != nil {
		a.logger.WarnContext(r.Context(), "batch interrupted", "done", len(out), "err", err)
		resp.Partial = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBatch(w http.ResponseWriter, r *http.Request) (batchRequest, error) {
	var req batchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid body: %w", err)
	}
	if len(req.Addresses) == 0 {
		return req, errors.New("addresses must not be empty")
	}
	if len(req.Addresses) > MaxBatch {
		return req, fmt.Errorf("too many addresses: %d > %d", len(req.Addresses), MaxBatch)
	}
	return req, nil
}

type districtJSON struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (a *API) handleDistricts(w http.ResponseWriter, _ *http.Request) {
	ds := a.gaz.Districts()
	out := make([]districtJSON, len(ds))
	for i, d := range ds {
		out[i] = districtJSON{Name: d.Name, Lat: d.Center.Lat, Lng: d.Center.Lng}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleForget deletes the given ?address= entries, or everything with ?all=true.
func (a *API) handleForget(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	addrs := q["address"]
	all := strings.EqualFold(q.Get("all"), "true")

	switch {
	case len(addrs) == 0 && !all:
		writeError(w, http.StatusBadRequest, "pass address=... or all=true")
		return
	case len(addrs) > 0 && all:
		writeError(w, http.StatusBadRequest, "address and all are exclusive")
		return
	}

	if all {
		addrs = nil
	}
	if err := a.res.Forget(r.Context(), addrs...); err != nil {
		a.logger.ErrorContext(r.Context(), "cache invalidation failed", "err", err)
		writeError(w, http.StatusBadGateway, "cache invalidation failed")
		return
	}
	a.logger.InfoContext(r.Context(), "cache invalidated", "addresses", len(addrs), "all", all)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
