package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/studylens/document-analysis-service/common/jobs"
	"github.com/studylens/document-analysis-service/common/utils"
)

// DeleteResponse reports whether the blob existed before deletion.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

type UploadsHandler struct {
	svc    *jobs.Service
	router *chi.Mux
}

func NewUploadsHandler(svc *jobs.Service) *UploadsHandler {
	h := &UploadsHandler{
		svc: svc,
	}

	r := chi.NewRouter()
	r.Delete("/{jobID}/{filename}", h.handleDelete)

	h.router = r
	return h
}

func (h *UploadsHandler) Router() *chi.Mux {
	return h.router
}

func (h *UploadsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	filename := chi.URLParam(r, "filename")

	existed, err := h.svc.DeleteUpload(r.Context(), jobID, filename)
	if err != nil {
		log.Error().Err(err).Str("jobID", jobID).Str("filename", filename).Msg("Failed to delete upload")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete upload")
		return
	}

	utils.WriteJSON(w, http.StatusOK, DeleteResponse{Deleted: existed})
}
