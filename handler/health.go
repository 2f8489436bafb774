package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/studylens/document-analysis-service/common/utils"
)

type HealthHandler struct {
	router *chi.Mux
}

func NewHealthHandler() *HealthHandler {
	h := &HealthHandler{}

	r := chi.NewRouter()
	r.Get("/", h.handleHealthCheck)

	h.router = r
	return h
}

func (h *HealthHandler) Router() *chi.Mux {
	return h.router
}

// handleHealthCheck is a liveness probe only; it does not touch any
// downstream dependency.
func (h *HealthHandler) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "document-analysis-service",
	}

	utils.WriteJSON(w, http.StatusOK, response)
}
