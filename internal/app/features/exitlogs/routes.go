// internal/app/features/exitlogs/routes.go
package exitlogs

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts exit log routes (typically at "/api/exits").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/current", h.CurrentlyOut)
	r.Get("/stats", h.Stats)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/return", h.Return)
	r.Put("/{id}/absent", h.MarkAbsent)
	r.With(auth.RequireRole(authz.Management...)).Delete("/{id}", h.Delete)
	return r
}

// VisitRoutes mounts visitor log routes (typically at "/api/visits").
func VisitRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListVisits)
	r.Post("/", h.CreateVisit)
	r.Put("/{id}/checkout", h.CheckoutVisit)
	return r
}
