// internal/app/features/approvals/routes.go
package approvals

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts approval routes (typically at "/api/approvals").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/cancel", h.Cancel)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(authz.Management...))
		r.Put("/{id}/approve", h.Approve)
		r.Put("/{id}/reject", h.Reject)
	})
	return r
}
