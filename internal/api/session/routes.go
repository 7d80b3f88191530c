package session

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers session routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/{id}", h.GetSession)
		r.Delete("/{id}", h.DeleteSession)
		r.Put("/{id}/document", h.SelectDocument)
		r.Put("/{id}/question", h.SetQuestion)
		r.Post("/{id}/summarize", h.Summarize)
		r.Post("/{id}/ask", h.Ask)
		r.Get("/{id}/export", h.Export)
	})
}
