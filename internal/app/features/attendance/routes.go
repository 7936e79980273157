// internal/app/features/attendance/routes.go
package attendance

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts attendance routes (typically at "/api/attendance").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Mark)
	r.Post("/bulk", h.Bulk)
	r.Get("/summary", h.Summary)
	r.With(auth.RequireRole(authz.Management...)).Delete("/{id}", h.Delete)
	return r
}
