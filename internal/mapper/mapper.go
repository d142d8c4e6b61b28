// Package mapper converts resolved coordinates to H3 cells.
package mapper

import (
	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

type Interface interface {
	CellFor(c model.Coordinate, res int) (string, error)
}
