package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk simulation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Route("/simulate", func(r chi.Router) {
			r.Post("/single", h.HandleSimulateSingle)
			r.Post("/portfolio", h.HandleSimulatePortfolio)
		})

		r.Post("/estimate", h.HandleEstimate)
		r.Post("/bootstrap", h.HandleBootstrap)
	})
}
