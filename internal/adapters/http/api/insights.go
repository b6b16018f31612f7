package api

import (
	"net/http"

	service "github.com/okian/tokscope/internal/app"
)

// handleClusters handles POST /api/insights/clusters.
func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	var req service.InsightsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Clusters(req))
}

// handleDashboard handles POST /api/insights/dashboard.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var req service.InsightsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Dashboard(req))
}
