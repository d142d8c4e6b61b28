// Package httpclient configures the HTTP client used to call geocoding providers.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// NewOutbound creates the client shared by geocoding providers. Per-request
// deadlines come from the geocode client; ceiling bounds anything else.
func NewOutbound(ceiling time.Duration) *http.Client {
	if ceiling <= 0 {
		ceiling = 30 * time.Second
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   ceiling,
	}
}
