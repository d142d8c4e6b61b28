package geocode

import "context"

// Offline never issues a request and reports every address as unmatched.
// It turns the resolver into a district-only matcher.
type Offline struct{}

func (Offline) Name() string { return "none" }

func (Offline) Geocode(_ context.Context, _ string) (Result, error) {
	return Result{}, NewError(KindNoMatch, "none", "geocoding disabled", nil)
}
