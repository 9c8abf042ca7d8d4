package handler

import (
	"github.com/reellists/listgen/internal/domain"
	"github.com/reellists/listgen/internal/trakt"
)

type RefreshResponse struct {
	UserID      string                `json:"user_id"`
	ItemCount   int                   `json:"item_count"`
	List        *trakt.ListSyncResult `json:"list"`
	GeneratedAt string                `json:"generated_at"`
}

type BatchResponse struct {
	Results     []domain.RunResult  `json:"results"`
	Summary     domain.BatchSummary `json:"summary"`
	GeneratedAt string              `json:"generated_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
