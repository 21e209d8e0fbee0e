// Package handlers provides HTTP handlers for portfolio forecasting.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/export"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/forecast"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/holdings"
)

// Handler handles forecast HTTP requests
type Handler struct {
	service *forecast.Service
	log     zerolog.Logger
}

// NewHandler creates a new forecast handler
func NewHandler(service *forecast.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "forecast").Logger(),
	}
}

// RegisterRoutes mounts the forecast endpoints on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/forecast", h.HandleGenerate)
	r.Get("/api/forecast/progress", h.HandleProgress)
	r.Get("/api/forecast/history", h.HandleHistory)
	r.Get("/api/forecast/{requestID}", h.HandleGet)
	r.Get("/api/forecast/{requestID}/export", h.HandleExport)
}

type generateRequest struct {
	Holdings       []holdings.Holding `json:"holdings"`
	TimeHorizon    forecast.Horizon   `json:"time_horizon"`
	NumSimulations int                `json:"num_simulations"`
}

// HandleGenerate runs the forecast pipeline for the posted portfolio
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.GenerateForecast(r.Context(), req.Holdings, req.TimeHorizon, req.NumSimulations)
	if err != nil {
		// The service only rejects requests for client-side reasons (empty
		// portfolio, unsupported horizon); engine trouble degrades to a
		// synthetic result instead of an error.
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleProgress reports the progress coordinator's current state
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Progress())
}

// HandleHistory lists persisted forecast snapshots, newest first
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	history, err := h.service.History(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if history == nil {
		history = []forecast.SnapshotSummary{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": history})
}

// HandleGet returns one persisted forecast result by request id
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	result, err := h.service.Snapshot(requestID)
	if errors.Is(err, forecast.ErrSnapshotNotFound) {
		h.writeError(w, http.StatusNotFound, "forecast not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleExport renders a persisted forecast result as JSON, CSV or a report
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatJSON
	}
	if !format.Valid() {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	result, err := h.service.Snapshot(requestID)
	if errors.Is(err, forecast.ErrSnapshotNotFound) {
		h.writeError(w, http.StatusNotFound, "forecast not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	body, err := export.Render(format, result)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format != export.FormatJSON {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=forecast-%s.%s", requestID, fileExtension(format)))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.log.Error().Err(err).Msg("failed to write export response")
	}
}

func fileExtension(f export.Format) string {
	if f == export.FormatCSV {
		return "csv"
	}
	return "txt"
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
