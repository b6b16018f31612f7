package api

import (
	"io"
	"net/http"
)

// IdempotencyHeader lets clients retry a submission safely.
const IdempotencyHeader = "Idempotency-Key"

// handleSubmitBatch handles POST /api/batches. The mode query parameter
// overrides the body's mode.
func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	job, replayed, err := s.deps.SubmitBatch(r.Context(), body, r.URL.Query().Get("mode"), r.Header.Get(IdempotencyHeader))
	if err != nil {
		s.fail(r.Context(), w, "batch_submit", err, msgBatchFailed)
		return
	}
	w.Header().Set("Location", "/api/batches/"+job.ID)
	status := http.StatusAccepted
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, job)
}

// handleGetBatch handles GET /api/batches/{id}.
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.GetBatch(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(r.Context(), w, "batch_get", err, msgBatchNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
