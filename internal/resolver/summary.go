package resolver

import (
	"github.com/mohammed-shakir/garage-geo/internal/core/model"
	"github.com/mohammed-shakir/garage-geo/internal/geocode"
)

// Summary counts batch outcomes.
type Summary struct {
	Total         int            `json:"total"`
	District      int            `json:"district"`
	Geocoded      int            `json:"geocoded"`
	Provided      int            `json:"provided"`
	Unresolved    int            `json:"unresolved"`
	CacheHits     int            `json:"cache_hits"`
	ProviderCalls int            `json:"provider_calls"`
	Reasons       map[string]int `json:"reasons,omitempty"`
}

func Summarize(locs []model.ResolvedLocation) Summary {
	s := Summary{Reasons: map[string]int{}}
	for _, l := range locs {
		s.Total++
		switch l.Outcome {
		case model.OutcomeDistrict:
			s.District++
		case model.OutcomeGeocoded:
			s.Geocoded++
		case model.OutcomeProvided:
			s.Provided++
		default:
			s.Unresolved++
			s.Reasons[l.Reason]++
		}
		if l.Cached {
			s.CacheHits++
			continue
		}
		if l.Outcome == model.OutcomeGeocoded ||
			(l.Outcome == model.OutcomeUnresolved && l.Reason != geocode.KindMalformedInput.String()) {
			s.ProviderCalls++
		}
	}
	return s
}

func SummarizeMap(m map[string]model.ResolvedLocation) Summary {
	locs := make([]model.ResolvedLocation, 0, len(m))
	for _, l := range m {
		locs = append(locs, l)
	}
	return Summarize(locs)
}

func SummarizeRecords(recs []model.PlacedRecord) Summary {
	locs := make([]model.ResolvedLocation, len(recs))
	for i, r := range recs {
		locs[i] = r.Location
	}
	return Summarize(locs)
}

func (s Summary) UnresolvedRatio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Unresolved) / float64(s.Total)
}

// Exceeds reports whether the unresolved share is above threshold.
func (s Summary) Exceeds(threshold float64) bool {
	return s.Total > 0 && s.UnresolvedRatio() > threshold
}
