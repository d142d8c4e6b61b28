// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"math"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String renders lat,lng with six decimals, matching the gazetteer precision
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// Valid reports whether the coordinate lies in WGS84 range and is not the zero point.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	if c.Lat == 0 && c.Lng == 0 {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

type Outcome string

const (
	OutcomeDistrict   Outcome = "district"
	OutcomeGeocoded   Outcome = "geocoded"
	OutcomeUnresolved Outcome = "unresolved"
	// OutcomeProvided marks records that carried their own coordinate.
	OutcomeProvided Outcome = "provided"
)

type ResolvedLocation struct {
	Address    string     `json:"address"`
	Outcome    Outcome    `json:"outcome"`
	District   string     `json:"district,omitempty"`
	Coordinate Coordinate `json:"coordinate"`
	Cell       string     `json:"h3_cell,omitempty"`
	Provider   string     `json:"provider,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Cached     bool       `json:"cached,omitempty"`
}

func (l ResolvedLocation) Resolved() bool {
	return l.Outcome != OutcomeUnresolved && l.Outcome != ""
}

// AddressRecord is one facility row. Coordinate is nil when the source had none.
type AddressRecord struct {
	Name       string      `json:"name"`
	Address    string      `json:"address"`
	Capacity   *float64    `json:"capacity,omitempty"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// MatchText is the text district matching runs against: name and address joined.
func (r AddressRecord) MatchText() string {
	switch {
	case r.Name == "":
		return r.Address
	case r.Address == "":
		return r.Name
	default:
		return r.Address + " " + r.Name
	}
}

type PlacedRecord struct {
	Record   AddressRecord    `json:"record"`
	Location ResolvedLocation `json:"location"`
}
