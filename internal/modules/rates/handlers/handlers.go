// Package handlers provides HTTP handlers for currency and rate operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/akistler/finboard/internal/domain"
	"github.com/akistler/finboard/internal/modules/conversion"
	"github.com/akistler/finboard/internal/modules/rates"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles currency HTTP requests.
type Handler struct {
	provider  *rates.Provider
	converter *conversion.Service
	log       zerolog.Logger
}

// NewHandler creates a new currency handler.
func NewHandler(provider *rates.Provider, converter *conversion.Service, log zerolog.Logger) *Handler {
	return &Handler{
		provider:  provider,
		converter: converter,
		log:       log.With().Str("handler", "currency").Logger(),
	}
}

// ConvertRequest represents a request to convert an amount between currencies.
type ConvertRequest struct {
	FromCurrency string  `json:"from_currency"`
	ToCurrency   string  `json:"to_currency"`
	Amount       float64 `json:"amount"`
	Date         string  `json:"date,omitempty"` // optional ISO date for a historical rate
}

// HandleConvert handles POST /api/currency/convert
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.FromCurrency == "" || req.ToCurrency == "" {
		http.Error(w, "from_currency and to_currency are required", http.StatusBadRequest)
		return
	}

	money, err := domain.NewMoneyFromFloat(req.Amount, req.FromCurrency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var cm domain.ConvertedMoney
	if req.Date != "" {
		cm = h.converter.ConvertAt(money, req.ToCurrency, req.Date)
	} else {
		cm = h.converter.Convert(money, req.ToCurrency)
	}

	h.writeJSON(w, http.StatusOK, envelope(cm))
}

// HandleLatestRate handles GET /api/currency/rates/latest?base=EUR&target=USD
func (h *Handler) HandleLatestRate(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	target := r.URL.Query().Get("target")
	if base == "" || target == "" {
		http.Error(w, "base and target query parameters are required", http.StatusBadRequest)
		return
	}

	rate, err := h.provider.Latest(base, target)
	if err != nil {
		h.log.Warn().Err(err).Str("base", base).Str("target", target).Msg("Rate lookup failed")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(rate))
}

// HandleLatestRates handles GET /api/currency/rates?base=EUR&targets=USD,GBP
func (h *Handler) HandleLatestRates(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	targetsParam := r.URL.Query().Get("targets")
	if base == "" || targetsParam == "" {
		http.Error(w, "base and targets query parameters are required", http.StatusBadRequest)
		return
	}

	resolved := h.provider.LatestBatch(base, strings.Split(targetsParam, ","))
	h.writeJSON(w, http.StatusOK, envelope(resolved))
}

// HandleAvailableCurrencies handles GET /api/currency/available-currencies
func (h *Handler) HandleAvailableCurrencies(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"currencies": rates.FallbackCurrencies(),
	}))
}

// SumRequest represents a batch of amounts to sum in one display currency.
type SumRequest struct {
	Values []struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"values"`
	ToCurrency string `json:"to_currency"`
}

// HandleSum handles POST /api/currency/sum
func (h *Handler) HandleSum(w http.ResponseWriter, r *http.Request) {
	var req SumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ToCurrency == "" {
		http.Error(w, "to_currency is required", http.StatusBadRequest)
		return
	}

	values := make([]domain.Money, 0, len(req.Values))
	for _, v := range req.Values {
		values = append(values, domain.Money{
			Amount:   decimal.NewFromFloat(v.Amount),
			Currency: strings.ToUpper(strings.TrimSpace(v.Currency)),
		})
	}

	total := h.converter.SumWithConversion(values, req.ToCurrency)
	h.writeJSON(w, http.StatusOK, envelope(total))
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
