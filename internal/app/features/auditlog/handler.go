// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	userstore "github.com/dalemusser/shelterhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB    *mongo.Database
	Store *audit.Store
	Users *userstore.Store
	Log   *zap.Logger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Store: audit.New(db),
		Users: userstore.New(db),
		Log:   logger,
	}
}
