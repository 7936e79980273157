// internal/app/features/tickets/handler.go
package tickets

import (
	ticketstore "github.com/dalemusser/shelterhub/internal/app/store/tickets"
	userstore "github.com/dalemusser/shelterhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves internal support tickets.
type Handler struct {
	DB    *mongo.Database
	Store *ticketstore.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Store: ticketstore.New(db),
		Users: userstore.New(db),
		Log:   logger,
	}
}
