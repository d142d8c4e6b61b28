package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim queries an OpenStreetMap Nominatim /search endpoint.
type Nominatim struct {
	base      *url.URL
	userAgent string
	language  string
	region    string
	client    *http.Client
}

type nominatimPlace struct {
	Lat         float64 `json:"lat,string"`
	Lng         float64 `json:"lon,string"`
	DisplayName string  `json:"display_name"`
}

func NewNominatim(s Settings, client *http.Client) (*Nominatim, error) {
	raw := s.BaseURL
	if raw == "" {
		raw = defaultNominatimURL
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse nominatim url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	ua := s.UserAgent
	if ua == "" {
		// Nominatim's usage policy rejects requests without an identifying agent
		ua = "garage-geo/1.0"
	}
	return &Nominatim{base: u, userAgent: ua, language: s.Language, region: s.Region, client: client}, nil
}

func (n *Nominatim) Name() string { return "nominatim" }

func (n *Nominatim) Geocode(ctx context.Context, address string) (Result, error) {
	if strings.TrimSpace(address) == "" {
		return Result{}, NewError(KindMalformedInput, n.Name(), "empty address", nil)
	}

	u := *n.base
	u.Path += "/search"
	q := u.Query()
	q.Set("q", address)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	if n.language != "" {
		q.Set("accept-language", n.language)
	}
	if n.region != "" {
		q.Set("countrycodes", n.region)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, NewError(KindInvalidRequest, n.Name(), "build request", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return Result{}, wrapTransport(n.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, ClassifyHTTPStatus(n.Name(), resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		if KindOf(err) == KindTimeout {
			return Result{}, NewError(KindTimeout, n.Name(), "read response", err)
		}
		return Result{}, NewError(KindServiceUnavailable, n.Name(), "decode response", err)
	}
	if len(places) == 0 {
		return Result{}, NewError(KindNoMatch, n.Name(), "no results", nil)
	}

	p := places[0]
	c := model.Coordinate{Lat: p.Lat, Lng: p.Lng}
	if !c.Valid() {
		return Result{}, NewError(KindNoMatch, n.Name(), "result has invalid coordinate "+c.String(), nil)
	}
	return Result{Coordinate: c, DisplayName: p.DisplayName, Provider: n.Name()}, nil
}
