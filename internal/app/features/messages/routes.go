// internal/app/features/messages/routes.go
package messages

import "github.com/go-chi/chi/v5"

// Routes mounts the REST API (typically at "/api/messages"). The WebSocket
// endpoint is mounted separately with ServeWS.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/conversations", h.Conversations)
	r.Get("/unread", h.Unread)
	r.Get("/online", h.OnlineUsers)
	r.Post("/", h.Send)
	r.Get("/thread/{userId}", h.Thread)
	r.Put("/thread/{userId}/read", h.MarkRead)
	return r
}
