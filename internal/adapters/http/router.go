// Package http exposes the archive over a small JSON API plus the rendered
// HTML report pages.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itmat/isareport/internal/application"
	"github.com/itmat/isareport/internal/domain"
)

type Handler struct {
	service  *application.ReportService
	renderer domain.ReportRenderer
}

func NewRouter(service *application.ReportService, renderer domain.ReportRenderer) http.Handler {
	h := &Handler{service: service, renderer: renderer}
	r := chi.NewRouter()

	r.Get("/healthz", h.handleHealthz)

	r.Route("/api", func(api chi.Router) {
		api.Get("/investigations", h.handleListInvestigations)
		api.Get("/investigations/{id}", h.handleGetInvestigation)
		api.Get("/investigations/{id}/graph", h.handleGetGraph)
		api.Delete("/investigations/{id}", h.handleDeleteInvestigation)
	})

	r.Get("/", h.handleIndexPage)
	r.Get("/reports/{id}", h.handleReportPage)

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleListInvestigations(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	entries, err := h.service.ListInvestigations(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []domain.ArchiveEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleGetInvestigation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.GetInvestigation(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	graph, err := h.service.GetGraph(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

func (h *Handler) handleDeleteInvestigation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteInvestigation(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListInvestigations(r.Context(), "", 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.RenderIndex(w, entries); err != nil {
		log.Printf("render index: %v", err)
	}
}

func (h *Handler) handleReportPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.GetInvestigation(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	graph, err := h.service.GetGraph(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, inv, graph); err != nil {
		log.Printf("render report %d: %v", id, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid id"})
		return 0, false
	}
	return uint(parsed), true
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json response: %v", err)
	}
}
