// internal/app/features/schedules/handler.go
package schedules

import (
	schedulestore "github.com/dalemusser/shelterhub/internal/app/store/schedules"
	userstore "github.com/dalemusser/shelterhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves staff shift planning.
type Handler struct {
	DB    *mongo.Database
	Store *schedulestore.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Store: schedulestore.New(db),
		Users: userstore.New(db),
		Log:   logger,
	}
}
