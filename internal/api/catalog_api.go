package api

import (
	"net/http"

	"navalha/internal/metrics"
)

// handleBarbers lists active barbers.
// GET /api/barbers
func (s *HTTPServer) handleBarbers(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("barbers")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	barbers, err := s.db.ListActiveBarbers(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list barbers")
		writeError(w, http.StatusInternalServerError, "failed to list barbers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"barbers": barbers})
}

// handleServices lists active services.
// GET /api/services
func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("services")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	services, err := s.db.ListActiveServices(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list services")
		writeError(w, http.StatusInternalServerError, "failed to list services")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}
