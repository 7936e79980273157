// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts announcement routes (typically at "/api/announcements").
// Every user reads the active feed; management manages the rest.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/active", h.Active)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(authz.Management...))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/toggle", h.Toggle)
		r.Delete("/{id}", h.Delete)
	})
	return r
}
