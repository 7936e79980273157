// internal/app/features/tickets/routes.go
package tickets

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts ticket routes (typically at "/api/tickets").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Put("/{id}/status", h.SetStatus)
	r.Post("/{id}/comments", h.Comment)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(authz.Management...))
		r.Put("/{id}/assign", h.Assign)
		r.Delete("/{id}", h.Delete)
	})
	return r
}
