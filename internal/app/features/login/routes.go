// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the auth routes (typically at "/api/auth"). Login is public;
// the rest require a token.
func Routes(h *Handler, tokens *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)

	r.Group(func(pr chi.Router) {
		pr.Use(tokens.Authenticate)
		pr.Get("/me", h.Me)
		pr.Put("/password", h.ChangePassword)
	})
	return r
}
