package extract

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// ParkInput is one row of a batch extraction CSV.
type ParkInput struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	WikiURL string `json:"wikiUrl"`
}

// ParseParksCSV reads a CSV with name, country and wikiUrl columns. Header
// matching is case-insensitive; "wiki_url" is accepted for "wikiUrl". Rows
// without a name or URL are skipped.
func ParseParksCSV(path string) ([]ParkInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open csv")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "read csv")
	}
	if len(rows) < 2 {
		return nil, eris.New("csv has no data rows")
	}

	nameIdx, countryIdx, urlIdx := -1, -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name", "park", "park name":
			nameIdx = i
		case "country":
			countryIdx = i
		case "wikiurl", "wiki_url", "wiki url", "url":
			urlIdx = i
		}
	}
	if nameIdx < 0 || urlIdx < 0 {
		return nil, eris.New("csv must have name and wikiUrl columns")
	}

	var parks []ParkInput
	for _, row := range rows[1:] {
		if nameIdx >= len(row) || urlIdx >= len(row) {
			continue
		}
		p := ParkInput{
			Name:    strings.TrimSpace(row[nameIdx]),
			WikiURL: strings.TrimSpace(row[urlIdx]),
		}
		if countryIdx >= 0 && countryIdx < len(row) {
			p.Country = strings.TrimSpace(row[countryIdx])
		}
		if p.Name == "" || p.WikiURL == "" {
			continue
		}
		parks = append(parks, p)
	}
	if len(parks) == 0 {
		return nil, eris.New("csv has no usable rows")
	}
	return parks, nil
}
