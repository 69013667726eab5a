package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Progress is the run snapshot served by the status endpoint and written to
// progress.json after every city.
type Progress struct {
	RunID         string    `json:"run_id,omitempty"`
	Running       bool      `json:"running"`
	ScrapedCities []string  `json:"scraped_cities"`
	FailedCities  []string  `json:"failed_cities"`
	TotalVenues   int       `json:"total_venues"`
	LastUpdated   time.Time `json:"last_updated"`
}

// SaveProgress writes the snapshot atomically (write temp, rename) so a
// concurrent status read never sees a torn file.
func (s *Store) SaveProgress(p Progress) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	tmp := s.progressPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	if err := os.Rename(tmp, s.progressPath); err != nil {
		return fmt.Errorf("replace progress: %w", err)
	}
	return nil
}

// LoadProgress reads the last snapshot. A missing file yields an empty
// snapshot, not an error: before the first run there is nothing to report.
func (s *Store) LoadProgress() (Progress, error) {
	data, err := os.ReadFile(s.progressPath)
	if os.IsNotExist(err) {
		return Progress{
			ScrapedCities: []string{},
			FailedCities:  []string{},
		}, nil
	}
	if err != nil {
		return Progress{}, fmt.Errorf("read progress: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return Progress{}, fmt.Errorf("parse progress: %w", err)
	}
	return p, nil
}
