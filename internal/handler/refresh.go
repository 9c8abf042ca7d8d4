package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reellists/listgen/internal/domain"
)

type refreshRequest struct {
	TimePeriod   domain.TimePeriod `json:"time_period"`
	GenreFilters []string          `json:"genres"`
	ListName     string            `json:"list_name"`
}

// POST /users/{userID}/lists/refresh
func (h *Handler) RefreshList(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Missing userID parameter")
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}
	if req.TimePeriod == "" {
		req.TimePeriod = domain.Period30Days
	}
	if !req.TimePeriod.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid time_period parameter")
		return
	}
	if req.ListName == "" {
		req.ListName = "AI Recommendations"
	}

	result, syncRes, err := h.service.RunOnDemand(r.Context(), domain.UserConfiguration{
		UserID:       userID,
		TimePeriod:   req.TimePeriod,
		GenreFilters: req.GenreFilters,
		ListName:     req.ListName,
	})
	if err != nil {
		writeError(w, statusForKind(result.ErrorKind, err), result.ErrorKind, result.Message)
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{
		UserID:      userID,
		ItemCount:   result.ItemCount,
		List:        syncRes,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func statusForKind(kind string, err error) int {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}
	switch kind {
	case "not_authenticated", "refresh_failed":
		return http.StatusUnauthorized
	case "no_history", "no_recommendations":
		return http.StatusUnprocessableEntity
	case "ai_service_error", "unparsable_response", "upstream_error", "list_api_error":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
