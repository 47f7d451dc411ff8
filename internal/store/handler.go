package store

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/reframe/reframe/backend-go/internal/auth"
	"github.com/reframe/reframe/backend-go/internal/document"
	"github.com/reframe/reframe/backend-go/internal/typeid"
)

const maxDefinitionSize = 1 << 20 // 1MB

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var doc document.LayoutDefinition
	if err := json.NewDecoder(io.LimitReader(r.Body, maxDefinitionSize)).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid layout definition"})
		return
	}

	created, err := h.service.Create(r.Context(), userID, &doc)
	if err != nil {
		slog.Error("create layout failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	layoutID := mux.Vars(r)["layoutId"]

	doc, err := h.service.Get(r.Context(), layoutID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	category := r.URL.Query().Get("category")

	layouts, err := h.service.List(r.Context(), userID, category)
	if err != nil {
		slog.Error("list layouts failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if layouts == nil {
		layouts = []Summary{}
	}

	writeJSON(w, http.StatusOK, layouts)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	layoutID := mux.Vars(r)["layoutId"]

	var doc document.LayoutDefinition
	if err := json.NewDecoder(io.LimitReader(r.Body, maxDefinitionSize)).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid layout definition"})
		return
	}
	doc.ID = layoutID

	saved, err := h.service.Save(r.Context(), &doc)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	layoutID := mux.Vars(r)["layoutId"]

	if err := h.service.Delete(r.Context(), userID, layoutID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export streams the stored definition bytes unmodified, so a re-import is
// byte-identical.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	layoutID := mux.Vars(r)["layoutId"]

	raw, err := h.service.GetRaw(r.Context(), layoutID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="layout.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxDefinitionSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	doc, err := h.service.Import(r.Context(), userID, raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// ListPresets returns the built-in starter layouts.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := document.LoadPresets()
	if err != nil {
		slog.Error("load presets failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, presets)
}

// InstantiatePreset creates a new layout from a named preset.
func (h *Handler) InstantiatePreset(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	presetName := mux.Vars(r)["presetName"]

	presets, err := document.LoadPresets()
	if err != nil {
		slog.Error("load presets failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	for _, p := range presets {
		if p.Name != presetName {
			continue
		}
		doc := p.Instantiate(typeid.NewLayoutID(), typeid.NewItemID)
		created, err := h.service.Create(r.Context(), userID, doc)
		if err != nil {
			slog.Error("create layout from preset failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, http.StatusCreated, created)
		return
	}

	writeJSON(w, http.StatusNotFound, map[string]string{"error": "preset not found"})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
