package addressbook

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"wayfarer/pkg/geocoder"
	"wayfarer/pkg/model"
)

// The id and coordinate columns are payload only; alt_street and alt_city
// carry the diacritic-folded form for accent-insensitive matching.
const schema = `
CREATE VIRTUAL TABLE building USING fts5(
  id UNINDEXED,
  longitude UNINDEXED,
  latitude UNINDEXED,
  country,
  city,
  zipcode,
  street,
  number,
  alt_street,
  alt_city,
  tokenize="unicode61 remove_diacritics 2"
);`

// Create opens (or creates) the sqlite file at path and installs the FTS
// schema.
func Create(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating building table: %w", err)
	}
	return db, nil
}

// Import inserts the buildings and compacts the full-text index afterwards.
func Import(ctx context.Context, db *sql.DB, buildings []model.Building) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO building
		  (id, longitude, latitude, country, city, zipcode, street, number, alt_street, alt_city)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range buildings {
		_, err := stmt.ExecContext(ctx,
			b.ID, b.Coords.Longitude, b.Coords.Latitude,
			b.Country, b.City, b.Zipcode, b.Street, b.Number,
			geocoder.Fold(b.Street), geocoder.Fold(b.City))
		if err != nil {
			return fmt.Errorf("inserting building %d: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO building(building) VALUES('optimize')`); err != nil {
		return fmt.Errorf("optimizing index: %w", err)
	}

	slog.Info("address book imported", "buildings", len(buildings))
	return nil
}
