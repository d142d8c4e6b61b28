// Package gazetteer holds the fixed district table used for substring matching.
package gazetteer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

type District struct {
	Name   string           `json:"name"`
	Center model.Coordinate `json:"center"`
}

// Gazetteer is an ordered, immutable district table. Match order is table order.
type Gazetteer struct {
	districts []District
	byName    map[string]int
}

func New(ds []District) (*Gazetteer, error) {
	if len(ds) == 0 {
		return nil, errors.New("gazetteer: no districts")
	}
	g := &Gazetteer{
		districts: make([]District, 0, len(ds)),
		byName:    make(map[string]int, len(ds)),
	}
	for i, d := range ds {
		name := norm.NFC.String(strings.TrimSpace(d.Name))
		if name == "" {
			return nil, fmt.Errorf("gazetteer: district %d has empty name", i)
		}
		if _, dup := g.byName[name]; dup {
			return nil, fmt.Errorf("gazetteer: duplicate district %q", name)
		}
		if !d.Center.Valid() {
			return nil, fmt.Errorf("gazetteer: district %q has invalid center %s", name, d.Center)
		}
		g.byName[name] = len(g.districts)
		g.districts = append(g.districts, District{Name: name, Center: d.Center})
	}
	return g, nil
}

// Match returns the first district, in table order, whose name occurs in text.
// When text names two districts the earlier table entry wins.
func (g *Gazetteer) Match(text string) (District, bool) {
	if text == "" {
		return District{}, false
	}
	text = norm.NFC.String(text)
	for _, d := range g.districts {
		if strings.Contains(text, d.Name) {
			return d, true
		}
	}
	return District{}, false
}

func (g *Gazetteer) Lookup(name string) (District, bool) {
	i, ok := g.byName[norm.NFC.String(strings.TrimSpace(name))]
	if !ok {
		return District{}, false
	}
	return g.districts[i], true
}

// Districts returns a copy of the table in match order.
func (g *Gazetteer) Districts() []District {
	out := make([]District, len(g.districts))
	copy(out, g.districts)
	return out
}

func (g *Gazetteer) Len() int { return len(g.districts) }

type fileEntry struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Load reads a JSON array of {"name","lat","lng"} triples. File order is match order.
func Load(path string) (*Gazetteer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer %s: %w", path, err)
	}
	var entries []fileEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("decode gazetteer %s: %w", path, err)
	}
	ds := make([]District, len(entries))
	for i, e := range entries {
		ds[i] = District{Name: e.Name, Center: model.Coordinate{Lat: e.Lat, Lng: e.Lng}}
	}
	return New(ds)
}

// FromFileOrDefault loads path when set and falls back to the Seoul table otherwise.
func FromFileOrDefault(path string) (*Gazetteer, error) {
	if strings.TrimSpace(path) == "" {
		return Seoul(), nil
	}
	return Load(path)
}
