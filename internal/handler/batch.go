package handler

import (
	"net/http"
	"time"
)

// POST /cron/update-lists
// Invoked by the external scheduler once per interval. Per-user failures are
// reported in the aggregated results, never as an error status.
func (h *Handler) UpdateLists(w http.ResponseWriter, r *http.Request) {
	results, summary, err := h.service.RunNightly(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("nightly batch could not start")
		writeError(w, http.StatusInternalServerError, "internal_error", "Batch could not be started")
		return
	}

	writeJSON(w, http.StatusOK, BatchResponse{
		Results:     results,
		Summary:     summary,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
