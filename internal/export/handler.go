package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/reframe/reframe/backend-go/internal/document"
)

// LayoutLoader fetches the layout to render.
type LayoutLoader func(ctx context.Context, layoutID string) (*document.LayoutDefinition, error)

type Handler struct {
	manager *Manager
	load    LayoutLoader
}

func NewHandler(manager *Manager, load LayoutLoader) *Handler {
	return &Handler{manager: manager, load: load}
}

// Start handles POST /export/jobs.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.LayoutID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "layoutId is required"})
		return
	}

	doc, err := h.load(r.Context(), req.LayoutID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "layout not found"})
		return
	}

	job, err := h.manager.Start(doc, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRequest):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrLowMemory):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server busy, try again later"})
		default:
			slog.Error("start export failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// Status handles GET /export/jobs/{jobId}.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.manager.Get(jobID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Download handles GET /export/jobs/{jobId}/download.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.manager.Get(jobID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	if job.Status != StatusCompleted {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "job not completed"})
		return
	}

	f, err := os.Open(job.OutputPath)
	if err != nil {
		slog.Error("open export output", "job", jobID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	contentType := "video/mp4"
	switch job.Format {
	case "gif":
		contentType = "image/gif"
	case "webm":
		contentType = "video/webm"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, jobID, job.Format))
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	io.Copy(w, f)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
