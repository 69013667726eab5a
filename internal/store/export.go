package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// csvHeader matches the column order of the venues table.
var csvHeader = []string{
	"city", "name", "price", "timing", "address", "rating", "raters",
	"about_venue", "available_sports", "highlights", "amenities", "offer",
	"facilities", "venue_rules", "scraped_at",
}

// ExportCSV writes all venues as CSV, one row per venue with a header row.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	venues, err := s.Venues(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range venues {
		row := []string{
			v.City, v.Name, v.Price, v.Timing, v.Address, v.Rating, v.Raters,
			v.About, v.Sports, v.Highlights, v.Amenities, v.Offer,
			v.Facilities, v.VenueRules, v.ScrapedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportJSON writes all venues as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	venues, err := s.Venues(ctx)
	if err != nil {
		return err
	}
	if venues == nil {
		venues = []Venue{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(venues)
}
