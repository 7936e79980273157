// internal/app/features/announcements/handler.go
package announcements

import (
	announcementstore "github.com/dalemusser/shelterhub/internal/app/store/announcements"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns all Announcements handlers.
type Handler struct {
	DB    *mongo.Database
	Store *announcementstore.Store
	Log   *zap.Logger
}

// NewHandler constructs an Announcements Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Store: announcementstore.New(db),
		Log:   logger,
	}
}
