// internal/app/features/profile/routes.go
package profile

import "github.com/go-chi/chi/v5"

// Routes mounts the current user's profile (typically at "/api/profile").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.Put("/", h.Update)
	return r
}
