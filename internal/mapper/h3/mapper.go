package h3mapper

import (
	"errors"
	"fmt"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

const DefaultRes = 9

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

// CellFor returns the H3 cell containing c at resolution res.
func (m *Mapper) CellFor(c model.Coordinate, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	if !c.Valid() {
		return "", errors.New("coordinate out of range")
	}
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: c.Lat, Lng: c.Lng}, res)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return cell.String(), nil
}

// --- helpers ---

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}
