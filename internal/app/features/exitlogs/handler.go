// internal/app/features/exitlogs/handler.go
package exitlogs

import (
	"context"

	beneficiarystore "github.com/dalemusser/shelterhub/internal/app/store/beneficiaries"
	exitlogstore "github.com/dalemusser/shelterhub/internal/app/store/exitlogs"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the exit/return log and the visitor log.
type Handler struct {
	DB            *mongo.Database
	Store         *exitlogstore.Store
	Beneficiaries *beneficiarystore.Store
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Store:         exitlogstore.New(db),
		Beneficiaries: beneficiarystore.New(db),
		Log:           logger,
	}
}

// refs loads beneficiary references, logging rather than failing so a list
// still renders when the lookup breaks.
func (h *Handler) refs(ctx context.Context, ids []primitive.ObjectID) map[primitive.ObjectID]models.BeneficiaryRef {
	refs, err := h.Beneficiaries.Refs(ctx, ids)
	if err != nil {
		h.Log.Warn("populate beneficiaries failed", zap.Error(err))
		return map[primitive.ObjectID]models.BeneficiaryRef{}
	}
	return refs
}
