package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"venuescraper/internal/scraper"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, map[string]any{
		"CityCount": len(s.cfg.Scraper.Cities),
	}); err != nil {
		s.log.Error("render dashboard", zap.Error(err))
	}
}

func (s *Server) handleStartScraping(w http.ResponseWriter, r *http.Request) {
	// The run outlives the request; it is cancelled only by shutdown.
	runID, err := s.runner.StartBackground(context.Background())
	if errors.Is(err, scraper.ErrAlreadyRunning) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "a scrape run is already in progress",
		})
		return
	}
	if err != nil {
		s.log.Error("start scrape run", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "scraping started",
		"run_id":  runID,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	progress, err := s.db.LoadProgress()
	if err != nil {
		s.log.Error("load progress", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	progress.Running = s.runner.Running()
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	n, err := s.db.Count(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if n == 0 {
		http.Error(w, "no data available for download", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="venues.csv"`)
	if err := s.db.ExportCSV(r.Context(), w); err != nil {
		s.log.Error("export csv", zap.Error(err))
	}
}

func (s *Server) handleDownloadJSON(w http.ResponseWriter, r *http.Request) {
	n, err := s.db.Count(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if n == 0 {
		http.Error(w, "no data available for download", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="venues.json"`)
	if err := s.db.ExportJSON(r.Context(), w); err != nil {
		s.log.Error("export json", zap.Error(err))
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
