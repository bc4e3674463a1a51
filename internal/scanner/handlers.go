package scanner

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the start/stop/status endpoints of the scan loop.
func (s *Scanner) RegisterRoutes(r chi.Router) {
	r.Post("/async/start", s.handleStartAsync)
	r.Post("/async/stop", s.handleStopAsync)
	r.Get("/async/status", s.handleStatusAsync)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleStopAsync stops the scan loop
func (s *Scanner) handleStopAsync(w http.ResponseWriter, r *http.Request) {
	if !s.IsAsyncRunning() {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "already_stopped",
			"message": "Scanner is not running",
		})
		return
	}

	s.StopAsync()

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "stopped",
		"message": "Scanner stopped successfully",
	})
}

// handleStartAsync starts the scan loop
func (s *Scanner) handleStartAsync(w http.ResponseWriter, r *http.Request) {
	if s.IsAsyncRunning() {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "already_running",
			"message": "Scanner is already running",
		})
		return
	}

	if err := s.StartAsync(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "failed to start scanner",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "started",
		"message": "Scanner started successfully",
	})
}

func (s *Scanner) handleStatusAsync(w http.ResponseWriter, r *http.Request) {
	s.sentMu.Lock()
	tracked := len(s.sent)
	s.sentMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"running":        s.IsAsyncRunning(),
		"interval":       s.interval.String(),
		"alert_cooldown": s.cooldown.String(),
		"tracked_alerts": tracked,
	})
}
