// internal/app/features/news/handler.go
package news

import (
	newsstore "github.com/dalemusser/shelterhub/internal/app/store/news"
	"github.com/dalemusser/shelterhub/internal/app/system/uploads"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the public news feed and its management API.
type Handler struct {
	DB    *mongo.Database
	Store *newsstore.Store
	Files *uploads.Local
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, files *uploads.Local, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Store: newsstore.New(db),
		Files: files,
		Log:   logger,
	}
}
