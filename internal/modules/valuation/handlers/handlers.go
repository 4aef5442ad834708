// Package handlers provides HTTP handlers for portfolio valuation.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/akistler/finboard/internal/modules/valuation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles valuation HTTP requests.
type Handler struct {
	service         *valuation.Service
	defaultCurrency string
	log             zerolog.Logger
}

// NewHandler creates a new valuation handler.
func NewHandler(service *valuation.Service, defaultCurrency string, log zerolog.Logger) *Handler {
	return &Handler{
		service:         service,
		defaultCurrency: defaultCurrency,
		log:             log.With().Str("handler", "valuation").Logger(),
	}
}

// RegisterRoutes registers all valuation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/valuation", func(r chi.Router) {
		r.Get("/summary", h.HandleSummary)
	})
}

// HandleSummary handles GET /api/valuation/summary?currency=EUR
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = h.defaultCurrency
	}

	summary, err := h.service.Summarize(currency)
	if err != nil {
		h.log.Error().Err(err).Str("currency", currency).Msg("Failed to build valuation summary")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response := map[string]interface{}{
		"data": summary,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
