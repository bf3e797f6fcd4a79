// Package addressbook reads the regional building export and builds the FTS5
// address book consumed by the full-text geocoder backend.
package addressbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"wayfarer/pkg/model"
)

// ReadCSV parses the semicolon-delimited building export
// (`id;longitude;latitude;country;city;zipcode;street;number`). Rows with
// unparsable ids or coordinates, empty coordinates or an empty
// city/street/number are skipped.
func ReadCSV(r io.Reader) ([]model.Building, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var out []model.Building
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading building csv: %w", err)
		}
		line++
		b, ok := parseRow(record)
		if !ok {
			slog.Debug("skipping invalid building row", "line", line)
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func parseRow(record []string) (model.Building, bool) {
	if len(record) < 8 {
		return model.Building{}, false
	}
	id, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return model.Building{}, false
	}
	lng, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return model.Building{}, false
	}
	lat, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return model.Building{}, false
	}

	b := model.Building{
		ID:      id,
		Country: record[3],
		City:    record[4],
		Zipcode: record[5],
		Street:  record[6],
		Number:  record[7],
	}
	b.Coords.Latitude, b.Coords.Longitude = lat, lng

	if !b.Addressable() {
		return model.Building{}, false
	}
	return b, true
}
