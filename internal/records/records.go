// Package records loads facility address records from CSV exports.
//
// Column roles are detected from header names, so the loader accepts the
// public garage dataset as published (Korean headers, UTF-8 with BOM or
// CP949) as well as English-headed files.
package records

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

var ErrNoAddressColumn = errors.New("records: no address or coordinate columns in header")

// Columns holds the detected index of each role, -1 when absent.
type Columns struct {
	Name     int
	Address  int
	Capacity int
	Lat      int
	Lng      int
}

func (c Columns) hasCoordinates() bool { return c.Lat >= 0 && c.Lng >= 0 }

var (
	addressHints  = []string{"주소", "address", "addr"}
	nameHints     = []string{"명", "name"}
	capacityHints = []string{"면수", "대수", "capacity"}
	latHints      = []string{"위도", "latitude", "lat"}
	lngHints      = []string{"경도", "longitude", "lng", "lon"}
)

// DetectColumns picks the first header containing a hint for each role.
func DetectColumns(header []string) Columns {
	hs := make([]string, len(header))
	for i, h := range header {
		hs[i] = normalizeHeader(h)
	}
	find := func(hints []string, skip ...int) int {
		for i, h := range hs {
			if slices.Contains(skip, i) {
				continue
			}
			for _, hint := range hints {
				if strings.Contains(h, hint) {
					return i
				}
			}
		}
		return -1
	}
	c := Columns{}
	c.Address = find(addressHints)
	c.Lat = find(latHints)
	c.Lng = find(lngHints, c.Lat)
	c.Capacity = find(capacityHints, c.Address)
	c.Name = find(nameHints, c.Address, c.Capacity, c.Lat, c.Lng)
	return c
}

func LoadFile(path string) ([]model.AddressRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load reads a CSV with a header row. Rows with neither address nor a valid
// coordinate are skipped.
func Load(r io.Reader) ([]model.AddressRecord, error) {
	raw, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	text, err := decode(raw)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := DetectColumns(header)
	if cols.Address < 0 && !cols.hasCoordinates() {
		return nil, ErrNoAddressColumn
	}

	var out []model.AddressRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		rec := model.AddressRecord{
			Name:    field(row, cols.Name),
			Address: field(row, cols.Address),
		}
		if v, ok := parseFloat(field(row, cols.Capacity)); ok {
			rec.Capacity = &v
		}
		if cols.hasCoordinates() {
			lat, okLat := parseFloat(field(row, cols.Lat))
			lng, okLng := parseFloat(field(row, cols.Lng))
			if c := (model.Coordinate{Lat: lat, Lng: lng}); okLat && okLng && c.Valid() {
				rec.Coordinate = &c
			}
		}
		if rec.Address == "" && rec.Coordinate == nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// decode strips a UTF-8 BOM or converts CP949 input to UTF-8, then NFC-normalises.
func decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		b, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), raw)
		if err != nil {
			return "", fmt.Errorf("decode cp949: %w", err)
		}
		raw = b
	}
	return norm.NFC.String(string(raw)), nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
