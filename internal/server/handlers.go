package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth handles liveness requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "mission-control",
	}

	if err := s.container.DB.QuickCheck(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("Database ping failed")
		response["status"] = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a bare JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respond writes data in the API envelope
func respond(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}
