// internal/app/features/messages/handler.go
package messages

import (
	"net/http"
	"strings"

	messagestore "github.com/dalemusser/shelterhub/internal/app/store/messages"
	userstore "github.com/dalemusser/shelterhub/internal/app/store/users"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves direct messages over REST and WebSocket.
type Handler struct {
	DB    *mongo.Database
	Store *messagestore.Store
	Users *userstore.Store
	Hub   *Hub
	Log   *zap.Logger

	upgrader websocket.Upgrader
}

// NewHandler builds the handler and its hub. allowedOrigins restricts the
// WebSocket Origin header; empty or "*" accepts any origin.
func NewHandler(db *mongo.Database, allowedOrigins []string, logger *zap.Logger) *Handler {
	store := messagestore.New(db)
	users := userstore.New(db)
	h := &Handler{
		DB:    db,
		Store: store,
		Users: users,
		Hub:   NewHub(store, users, logger),
		Log:   logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = true
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[strings.ToLower(strings.TrimRight(origin, "/"))]
	}
}
