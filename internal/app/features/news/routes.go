// internal/app/features/news/routes.go
package news

import (
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// PublicRoutes mounts the anonymous feed (typically at "/api/public/news").
func PublicRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.PublicList)
	r.Get("/{slug}", h.PublicGet)
	return r
}

// Routes mounts article management (typically at "/api/news").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(authz.Management...))
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/publish", h.Publish)
	r.Post("/{id}/image", h.UploadImage)
	r.Delete("/{id}", h.Delete)
	return r
}
