// internal/app/features/pharmacy/routes.go
package pharmacy

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts pharmacy routes (typically at "/api/pharmacy"). Everyone
// reads; medical staff and management write.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/medications", h.List)
	r.Get("/medications/alerts", h.Alerts)
	r.Get("/medications/{id}", h.Get)
	r.Get("/medications/{id}/history", h.History)
	r.Get("/dispenses", h.Dispenses)
	r.Get("/dispenses/beneficiary/{beneficiaryId}", h.DispensesByBeneficiary)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(authz.PharmacyWriters...))
		pr.Post("/medications", h.Create)
		pr.Put("/medications/{id}", h.Update)
		pr.Delete("/medications/{id}", h.Delete)
		pr.Post("/medications/{id}/restock", h.Restock)
		pr.Post("/dispenses", h.Dispense)
	})
	return r
}
