// internal/app/features/reports/routes.go
package reports

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts reports (typically at "/api/reports"). The overview feeds
// every user's dashboard; detailed reports are for management.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/overview", h.Overview)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(authz.Management...))
		r.Get("/distributions", h.Distributions)
		r.Get("/distributions.csv", h.DistributionsCSV)
		r.Get("/attendance", h.AttendanceReport)
		r.Get("/attendance.csv", h.AttendanceCSV)
		r.Get("/beneficiaries", h.BeneficiariesReport)
		r.Get("/stock", h.Stock)
	})
	return r
}
