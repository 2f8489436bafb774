package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/studylens/document-analysis-service/common/config"
	"github.com/studylens/document-analysis-service/common/jobs"
	"github.com/studylens/document-analysis-service/common/utils"
)

// SubmitResponse acknowledges that a job unit was launched.
type SubmitResponse struct {
	Accepted bool   `json:"accepted"`
	JobID    string `json:"job_id"`
}

// CancelResponse reports the definite outcome of a halt request.
type CancelResponse struct {
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message"`
}

type AnalysisHandler struct {
	svc    *jobs.Service
	cfg    config.Config
	router *chi.Mux
}

func NewAnalysisHandler(svc *jobs.Service, cfg config.Config) *AnalysisHandler {
	h := &AnalysisHandler{
		svc: svc,
		cfg: cfg,
	}

	r := chi.NewRouter()
	r.Post("/{jobID}", h.handleSubmit)
	r.Get("/{jobID}", h.handleStatus)
	r.Post("/{jobID}/cancel", h.handleCancel)

	h.router = r
	return h
}

func (h *AnalysisHandler) Router() *chi.Mux {
	return h.router
}

// handleSubmit validates the upload and launches a background job unit. The
// analysis result is never part of this response; clients poll the status
// endpoint.
func (h *AnalysisHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing job ID")
		return
	}

	maxSize := h.cfg.Upload.MaxSize
	// Leave headroom for the multipart framing around the file part.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			utils.WriteError(w, http.StatusBadRequest, "File size exceeds the upload limit")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, "Missing file upload")
		return
	}
	defer file.Close()

	if contentType := header.Header.Get("Content-Type"); contentType != "application/pdf" {
		utils.WriteError(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if int64(len(content)) > maxSize {
		utils.WriteError(w, http.StatusBadRequest, "File size exceeds the upload limit")
		return
	}

	sub := jobs.Submission{
		JobID:       jobID,
		Filename:    header.Filename,
		ContentType: "application/pdf",
		Content:     content,
	}
	if err := h.svc.Submit(sub); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info().Str("jobID", jobID).Str("filename", header.Filename).Int("size", len(content)).Msg("Job accepted")
	utils.WriteJSON(w, http.StatusAccepted, SubmitResponse{
		Accepted: true,
		JobID:    jobID,
	})
}

func (h *AnalysisHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	record, ok := h.svc.Status(jobID)
	if !ok {
		utils.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	utils.WriteJSON(w, http.StatusOK, record)
}

// handleCancel halts the running unit for a job ID. Both outcomes are
// normal: cancelled, or nothing left to cancel.
func (h *AnalysisHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	if !h.svc.Halt(jobID) {
		utils.WriteJSON(w, http.StatusOK, CancelResponse{
			Cancelled: false,
			Message:   "No running process for this job",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, CancelResponse{
		Cancelled: true,
		Message:   "Processing cancelled",
	})
}
