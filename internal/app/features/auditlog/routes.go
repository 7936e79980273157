// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit trail (typically at "/api/audit"). Admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleAdmin))
	r.Get("/", h.List)
	return r
}
