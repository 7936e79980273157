// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts user administration (typically at "/api/users"). Listing is
// open to management so shifts and tickets can be assigned; changes are
// admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin, models.RoleManager))
		pr.Get("/", h.List)
		pr.Get("/{id}", h.Get)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))
		pr.Post("/", h.Create)
		pr.Put("/{id}", h.Update)
		pr.Patch("/{id}/status", h.SetStatus)
		pr.Put("/{id}/password", h.ResetPassword)
		pr.Delete("/{id}", h.Delete)
	})
	return r
}
