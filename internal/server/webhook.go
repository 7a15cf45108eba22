package server

import (
	"encoding/json"
	"io"
	"net/http"

	"chartink-gateway/internal/alert"
)

type ackResponse struct {
	Status   string `json:"status"`
	Received int    `json:"received"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// handleChartink ingests one alert batch from a Chartink scan callback.
func (s *Server) handleChartink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	batch, parseErr := alert.ParseBatch(body)
	if parseErr != nil {
		s.logger.Warn().Msg("rejected webhook payload")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid or empty payload"})
		return
	}

	received, procErr := s.service.Process(r.Context(), batch)
	if procErr != nil {
		s.logger.Error().Err(procErr).Msg("failed to persist alert batch")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ackResponse{Status: "success", Received: received})
}

// handleRoot reports liveness.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "running", Message: "chartink webhook active"})
}

// handleRefreshToken triggers a broker token refresh on demand.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.refresh == nil {
		writeJSON(w, http.StatusOK, statusResponse{Status: "failed"})
		return
	}
	if err := s.refresh(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("manual token refresh failed")
		writeJSON(w, http.StatusOK, statusResponse{Status: "failed"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
