// Package handlers provides HTTP handlers for position operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/akistler/finboard/internal/modules/positions"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles position HTTP requests.
type Handler struct {
	service *positions.Service
	log     zerolog.Logger
}

// NewHandler creates a new position handler.
func NewHandler(service *positions.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "positions").Logger(),
	}
}

// HandleList handles GET /api/positions?active=true
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	list, err := h.service.List(activeOnly)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list positions")
		http.Error(w, "Failed to list positions", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"positions": list,
		"count":     len(list),
	}))
}

// HandleGet handles GET /api/positions/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	pos, metrics, history, err := h.service.Get(id)
	if err != nil {
		h.log.Warn().Err(err).Str("position_id", id).Msg("Failed to get position")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"position":     pos,
		"metrics":      metrics,
		"transactions": history,
	}))
}

// HandleBuy handles POST /api/positions/buy
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	var in positions.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pos, err := h.service.RecordBuy(in)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", in.Symbol).Msg("Buy rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(pos))
}

// HandleSell handles POST /api/positions/sell
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request) {
	var in positions.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pos, err := h.service.RecordSell(in)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", in.Symbol).Msg("Sell rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(pos))
}

// HandleRefresh handles POST /api/positions/{id}/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	metrics, err := h.service.RefreshMetrics(id)
	if err != nil {
		h.log.Warn().Err(err).Str("position_id", id).Msg("Metrics refresh failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(metrics))
}

// HandleRefreshAll handles POST /api/positions/refresh
func (h *Handler) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	refreshed, err := h.service.RefreshAllMetrics()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh metrics")
		http.Error(w, "Failed to refresh metrics", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"refreshed": refreshed,
	}))
}

// HandleDelete handles DELETE /api/positions/{id}. This hard-deletes the
// position with its full transaction history and metrics.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(id); err != nil {
		h.log.Warn().Err(err).Str("position_id", id).Msg("Failed to delete position")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"deleted": id,
	}))
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
