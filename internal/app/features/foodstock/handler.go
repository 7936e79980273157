// internal/app/features/foodstock/handler.go
package foodstock

import (
	foodstockstore "github.com/dalemusser/shelterhub/internal/app/store/foodstock"
	"github.com/dalemusser/shelterhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the food and supplies stock.
type Handler struct {
	DB       *mongo.Database
	Store    *foodstockstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Store:    foodstockstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}
