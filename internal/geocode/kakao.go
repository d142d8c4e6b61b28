package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

const defaultKakaoURL = "https://dapi.kakao.com/v2/local/search/address.json"

// Kakao uses the Kakao Local address search, which handles Korean road and
// lot-number addresses better than global providers.
type Kakao struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

type kakaoResponse struct {
	Documents []struct {
		AddressName string `json:"address_name"`
		X           string `json:"x"` // longitude
		Y           string `json:"y"` // latitude
	} `json:"documents"`
}

func NewKakao(s Settings, client *http.Client) (*Kakao, error) {
	if s.APIKey == "" {
		return nil, errors.New("kakao geocoder: rest api key is required")
	}
	ep := s.BaseURL
	if ep == "" {
		ep = defaultKakaoURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Kakao{endpoint: ep, apiKey: s.APIKey, client: client}, nil
}

func (k *Kakao) Name() string { return "kakao" }

func (k *Kakao) Geocode(ctx context.Context, address string) (Result, error) {
	if strings.TrimSpace(address) == "" {
		return Result{}, NewError(KindMalformedInput, k.Name(), "empty address", nil)
	}

	params := url.Values{}
	params.Set("query", address)
	params.Set("size", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, NewError(KindInvalidRequest, k.Name(), "build request", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+k.apiKey)

	resp, err := k.client.Do(req)
	if err != nil {
		return Result{}, wrapTransport(k.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, ClassifyHTTPStatus(k.Name(), resp.StatusCode)
	}

	var kr kakaoResponse
	if err := json.NewDecoder(resp.Body).Decode(&kr); err != nil {
		return Result{}, NewError(KindServiceUnavailable, k.Name(), "decode response", err)
	}
	if len(kr.Documents) == 0 {
		return Result{}, NewError(KindNoMatch, k.Name(), "no documents", nil)
	}

	d := kr.Documents[0]
	lng, errX := strconv.ParseFloat(d.X, 64)
	lat, errY := strconv.ParseFloat(d.Y, 64)
	if errX != nil || errY != nil {
		return Result{}, NewError(KindServiceUnavailable, k.Name(), "bad coordinate in response", errors.Join(errX, errY))
	}
	return Result{
		Coordinate:  model.Coordinate{Lat: lat, Lng: lng},
		DisplayName: d.AddressName,
		Provider:    k.Name(),
	}, nil
}
