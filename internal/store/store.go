// Package store persists scraped venues and run progress. Venues live in a
// SQLite database under the data directory; the progress snapshot is
// additionally mirrored to progress.json so it survives independently of
// the database and can be served verbatim by the status endpoint.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Venue is one scraped venue listing. Missing fields hold "N/A", matching
// what the extraction step records for elements it could not find.
type Venue struct {
	City       string    `json:"city"`
	Name       string    `json:"name"`
	Price      string    `json:"price"`
	Timing     string    `json:"timing"`
	Address    string    `json:"address"`
	Rating     string    `json:"rating"`
	Raters     string    `json:"raters"`
	About      string    `json:"about_venue"`
	Sports     string    `json:"available_sports"`
	Highlights string    `json:"highlights"`
	Amenities  string    `json:"amenities"`
	Offer      string    `json:"offer"`
	Facilities string    `json:"facilities"`
	VenueRules string    `json:"venue_rules"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS venues (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	city        TEXT NOT NULL,
	name        TEXT NOT NULL,
	price       TEXT NOT NULL DEFAULT 'N/A',
	timing      TEXT NOT NULL DEFAULT 'N/A',
	address     TEXT NOT NULL DEFAULT 'N/A',
	rating      TEXT NOT NULL DEFAULT 'N/A',
	raters      TEXT NOT NULL DEFAULT 'N/A',
	about       TEXT NOT NULL DEFAULT 'N/A',
	sports      TEXT NOT NULL DEFAULT 'N/A',
	highlights  TEXT NOT NULL DEFAULT 'N/A',
	amenities   TEXT NOT NULL DEFAULT 'N/A',
	offer       TEXT NOT NULL DEFAULT 'N/A',
	facilities  TEXT NOT NULL DEFAULT 'N/A',
	venue_rules TEXT NOT NULL DEFAULT 'N/A',
	scraped_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_venues_city ON venues(city);
`

// Store wraps the venue database and the progress snapshot file.
type Store struct {
	db           *sql.DB
	progressPath string
}

// Open opens (creating if needed) the venue database inside dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "venues.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open venue db %s: %w", dbPath, err)
	}
	// modernc.org/sqlite serializes through a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:           db,
		progressPath: filepath.Join(dataDir, "progress.json"),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertVenues appends venues in a single transaction.
func (s *Store) InsertVenues(ctx context.Context, venues []Venue) error {
	if len(venues) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO venues
		(city, name, price, timing, address, rating, raters, about, sports,
		 highlights, amenities, offer, facilities, venue_rules, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, v := range venues {
		if _, err := stmt.ExecContext(ctx,
			v.City, v.Name, v.Price, v.Timing, v.Address, v.Rating, v.Raters,
			v.About, v.Sports, v.Highlights, v.Amenities, v.Offer,
			v.Facilities, v.VenueRules, v.ScrapedAt,
		); err != nil {
			return fmt.Errorf("insert venue %s/%s: %w", v.City, v.Name, err)
		}
	}
	return tx.Commit()
}

// Venues returns all venues, newest first.
func (s *Store) Venues(ctx context.Context) ([]Venue, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		city, name, price, timing, address, rating, raters, about, sports,
		highlights, amenities, offer, facilities, venue_rules, scraped_at
		FROM venues ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query venues: %w", err)
	}
	defer rows.Close()

	var venues []Venue
	for rows.Next() {
		var v Venue
		if err := rows.Scan(
			&v.City, &v.Name, &v.Price, &v.Timing, &v.Address, &v.Rating,
			&v.Raters, &v.About, &v.Sports, &v.Highlights, &v.Amenities,
			&v.Offer, &v.Facilities, &v.VenueRules, &v.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// Count returns the total number of stored venues.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count venues: %w", err)
	}
	return n, nil
}

// Clear removes all venues. Used when a fresh run replaces old data.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM venues`); err != nil {
		return fmt.Errorf("clear venues: %w", err)
	}
	return nil
}
