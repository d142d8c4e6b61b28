package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

const defaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Google uses the Google Maps Geocoding API.
type Google struct {
	endpoint string
	apiKey   string
	language string
	region   string
	client   *http.Client
}

type googleResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

func NewGoogle(s Settings, client *http.Client) (*Google, error) {
	if s.APIKey == "" {
		return nil, errors.New("google geocoder: api key is required")
	}
	ep := s.BaseURL
	if ep == "" {
		ep = defaultGoogleURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Google{endpoint: ep, apiKey: s.APIKey, language: s.Language, region: s.Region, client: client}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Geocode(ctx context.Context, address string) (Result, error) {
	if strings.TrimSpace(address) == "" {
		return Result{}, NewError(KindMalformedInput, g.Name(), "empty address", nil)
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)
	if g.region != "" {
		params.Set("region", g.region)
	}
	if g.language != "" {
		params.Set("language", g.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, NewError(KindInvalidRequest, g.Name(), "build request", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, wrapTransport(g.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, ClassifyHTTPStatus(g.Name(), resp.StatusCode)
	}

	var gr googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Result{}, NewError(KindServiceUnavailable, g.Name(), "decode response", err)
	}

	switch gr.Status {
	case "OK":
	case "ZERO_RESULTS":
		return Result{}, NewError(KindNoMatch, g.Name(), "zero results", nil)
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return Result{}, NewError(KindRateLimited, g.Name(), strings.ToLower(gr.Status), nil)
	case "REQUEST_DENIED", "INVALID_REQUEST":
		return Result{}, NewError(KindInvalidRequest, g.Name(), fmt.Sprintf("%s: %s", gr.Status, gr.ErrorMessage), nil)
	default:
		return Result{}, NewError(KindServiceUnavailable, g.Name(), "status "+gr.Status, nil)
	}
	if len(gr.Results) == 0 {
		return Result{}, NewError(KindNoMatch, g.Name(), "no results", nil)
	}

	r := gr.Results[0]
	return Result{
		Coordinate:  model.Coordinate{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		DisplayName: r.FormattedAddress,
		Provider:    g.Name(),
	}, nil
}
