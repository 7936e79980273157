// internal/app/features/beneficiaries/routes.go
package beneficiaries

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts beneficiary routes (typically at "/api/beneficiaries").
// Every staff member reads; case workers and management write; only
// management deletes a record.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/stats", h.Stats)
	r.Get("/{id}", h.Get)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(authz.CaseWriters...))
		pr.Post("/", h.Create)
		pr.Post("/import", h.Import)
		pr.Put("/{id}", h.Update)

		pr.Post("/{id}/photo", h.UploadPhoto)
		pr.Post("/{id}/documents", h.UploadDocument)
		pr.Delete("/{id}/documents/{docId}", h.DeleteDocument)

		pr.Post("/{id}/suivi", h.AddSuivi)
		pr.Put("/{id}/suivi/{entryId}", h.UpdateSuivi)
		pr.Delete("/{id}/suivi/{entryId}", h.DeleteSuivi)
	})

	r.With(auth.RequireRole(authz.Management...)).Delete("/{id}", h.Delete)
	return r
}
