package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all position routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/positions", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/buy", h.HandleBuy)
		r.Post("/sell", h.HandleSell)
		r.Post("/refresh", h.HandleRefreshAll)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/refresh", h.HandleRefresh)
		r.Delete("/{id}", h.HandleDelete)
	})
}
