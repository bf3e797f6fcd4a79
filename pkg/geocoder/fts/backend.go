// Package fts is the full-text address-book backend. Each region maps to a
// sqlite database with an FTS5 `building` table produced by the address-book
// importer.
package fts

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"wayfarer/pkg/geocoder"
	"wayfarer/pkg/model"
	"wayfarer/pkg/spatial"
)

// Backend holds one read-only database handle per region. The mapping is
// immutable after Open.
type Backend struct {
	regions map[string]*sql.DB
}

// Open opens the address book of every region in books (region name → sqlite
// file path).
func Open(books map[string]string) (*Backend, error) {
	b := &Backend{regions: make(map[string]*sql.DB, len(books))}
	for region, path := range books {
		slog.Info("indexing address book", "region", region, "path", path)
		db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("opening address book for %s: %w", region, err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			b.Close()
			return nil, fmt.Errorf("opening address book for %s: %w", region, err)
		}
		b.regions[region] = db
	}
	return b, nil
}

// Close releases all database handles.
func (b *Backend) Close() error {
	var first error
	for _, db := range b.regions {
		if err := db.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Lookup applies the match/hint policy for the region's address book.
func (b *Backend) Lookup(ctx context.Context, region string, c geocoder.AddressComponents) (geocoder.Result, error) {
	db, ok := b.regions[region]
	if !ok {
		return geocoder.Result{}, fmt.Errorf("%s: %w", region, geocoder.ErrRegionNotIndexed)
	}

	// A building number without a street is too wide to be useful, and
	// neither component at all leaves nothing to search for.
	switch {
	case c.Building != "" && c.Street != "":
		return b.buildingMatches(ctx, db, c)
	case c.Building == "" && c.Street != "":
		return b.streetHints(ctx, db, c)
	default:
		return geocoder.Result{}, nil
	}
}

// buildingMatches returns addressable rows matching street (or its folded
// alternative) by prefix, number by prefix and, when present, city and
// zipcode.
func (b *Backend) buildingMatches(ctx context.Context, db *sql.DB, c geocoder.AddressComponents) (geocoder.Result, error) {
	var match strings.Builder
	fmt.Fprintf(&match, `{street alt_street}: %s AND {number}: %s`,
		prefixToken(c.Street), prefixToken(c.Building))
	if c.City != "" {
		fmt.Fprintf(&match, ` AND {city alt_city}: %s`, prefixToken(c.City))
	}
	if c.Zipcode != "" {
		fmt.Fprintf(&match, ` AND {zipcode}: %s`, prefixToken(c.Zipcode))
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, longitude, latitude, country, city, zipcode, street, number
		   FROM building WHERE building MATCH ? ORDER BY city, number`,
		match.String())
	if err != nil {
		return geocoder.Result{}, fmt.Errorf("building query: %w", err)
	}
	defer rows.Close()

	var result geocoder.Result
	for rows.Next() {
		var bld model.Building
		var lng, lat float64
		if err := rows.Scan(&bld.ID, &lng, &lat, &bld.Country,
			&bld.City, &bld.Zipcode, &bld.Street, &bld.Number); err != nil {
			return geocoder.Result{}, fmt.Errorf("building row: %w", err)
		}
		bld.Coords = spatial.Coordinates{Latitude: lat, Longitude: lng}
		bld.Number = strings.ToUpper(bld.Number)
		result.Matches = append(result.Matches, bld)
	}
	if err := rows.Err(); err != nil {
		return geocoder.Result{}, fmt.Errorf("building query: %w", err)
	}
	return result, nil
}

// streetHints returns distinct (city, street) pairs matching the street token
// by prefix, optionally narrowed by city.
func (b *Backend) streetHints(ctx context.Context, db *sql.DB, c geocoder.AddressComponents) (geocoder.Result, error) {
	var match strings.Builder
	fmt.Fprintf(&match, `{street alt_street}: %s`, prefixToken(c.Street))
	if c.City != "" {
		fmt.Fprintf(&match, ` AND {city}: %s`, prefixToken(c.City))
	}

	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT city, street FROM building
		  WHERE building MATCH ? ORDER BY street, city`,
		match.String())
	if err != nil {
		return geocoder.Result{}, fmt.Errorf("street query: %w", err)
	}
	defer rows.Close()

	var result geocoder.Result
	for rows.Next() {
		var hint geocoder.AddressComponents
		if err := rows.Scan(&hint.City, &hint.Street); err != nil {
			return geocoder.Result{}, fmt.Errorf("street row: %w", err)
		}
		result.Hints = append(result.Hints, hint)
	}
	if err := rows.Err(); err != nil {
		return geocoder.Result{}, fmt.Errorf("street query: %w", err)
	}
	return result, nil
}

// prefixToken quotes a sanitized component as an FTS5 prefix phrase.
func prefixToken(s string) string {
	return `"` + s + `"*`
}
