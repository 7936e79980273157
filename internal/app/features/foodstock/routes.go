// internal/app/features/foodstock/routes.go
package foodstock

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts food stock routes (typically at "/api/stock"). Any staff
// member may record stock movements; deleting an item is for management.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/alerts", h.Alerts)
	r.Get("/history", h.History)
	r.Get("/consumption", h.Consumption)

	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Get("/{id}/history", h.ItemHistory)
	r.Post("/{id}/entree", h.Entree)
	r.Post("/{id}/sortie", h.Sortie)

	r.With(auth.RequireRole(authz.Management...)).Delete("/{id}", h.Delete)
	return r
}
