package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/reellists/listgen/internal/handler"
)

func Setup(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)

	// Routes. The batch route has no request timeout: a full nightly run is
	// bounded by each stage's own client timeouts.
	r.With(middleware.Timeout(5 * time.Minute)).
		Post("/users/{userID}/lists/refresh", h.RefreshList)
	r.Post("/cron/update-lists", h.UpdateLists)
	r.Get("/health", healthCheck)

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
