// internal/app/features/distributions/routes.go
package distributions

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts distribution routes (typically at "/api/distributions").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/beneficiary/{beneficiaryId}", h.ByBeneficiary)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.With(auth.RequireRole(authz.Management...)).Delete("/{id}", h.Delete)
	return r
}
