package geocode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a geocoding failure. Every kind is recoverable for a batch.
type Kind int

const (
	KindUnknown Kind = iota
	KindTimeout
	KindServiceUnavailable
	KindNoMatch
	KindMalformedInput
	KindRateLimited
	KindInvalidRequest
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindNoMatch:
		return "no_match"
	case KindMalformedInput:
		return "malformed_input"
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String; unknown names map to KindUnknown.
func ParseKind(s string) Kind {
	for k := KindUnknown; k <= KindInvalidRequest; k++ {
		if k.String() == s {
			return k
		}
	}
	return KindUnknown
}

type Error struct {
	Kind     Kind
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same kind, so errors.Is(err, ErrNoMatch) works
// for errors built by providers.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Provider == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrTimeout            = &Error{Kind: KindTimeout}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
	ErrNoMatch            = &Error{Kind: KindNoMatch}
	ErrMalformedInput     = &Error{Kind: KindMalformedInput}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrInvalidRequest     = &Error{Kind: KindInvalidRequest}
)

func NewError(kind Kind, provider, msg string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Message: msg, Err: err}
}

// KindOf returns the kind of err, classifying transport errors that are not *Error.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindServiceUnavailable
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "timeout"), strings.Contains(s, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(s, "connection refused"), strings.Contains(s, "no such host"):
		return KindServiceUnavailable
	}
	return KindUnknown
}

// wrapTransport turns an http.Client error into a classified *Error.
func wrapTransport(provider string, err error) *Error {
	kind := KindOf(err)
	if kind == KindUnknown {
		kind = KindServiceUnavailable
	}
	return NewError(kind, provider, "request failed", err)
}

// ClassifyHTTPStatus maps a non-200 provider response to an error kind.
func ClassifyHTTPStatus(provider string, statusCode int) *Error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return NewError(KindRateLimited, provider, "rate limit reached", nil)
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return NewError(KindInvalidRequest, provider, fmt.Sprintf("request rejected (status %d)", statusCode), nil)
	case http.StatusNotFound:
		return NewError(KindNoMatch, provider, "location not found", nil)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return NewError(KindTimeout, provider, fmt.Sprintf("upstream timeout (status %d)", statusCode), nil)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusInternalServerError:
		return NewError(KindServiceUnavailable, provider, fmt.Sprintf("service unavailable (status %d)", statusCode), nil)
	default:
		return NewError(KindUnknown, provider, fmt.Sprintf("unexpected status %d", statusCode), nil)
	}
}
