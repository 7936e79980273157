// internal/app/features/distributions/handler.go
package distributions

import (
	beneficiarystore "github.com/dalemusser/shelterhub/internal/app/store/beneficiaries"
	distributionstore "github.com/dalemusser/shelterhub/internal/app/store/distributions"
	foodstockstore "github.com/dalemusser/shelterhub/internal/app/store/foodstock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves distributions of goods to beneficiaries.
type Handler struct {
	DB            *mongo.Database
	Store         *distributionstore.Store
	Beneficiaries *beneficiarystore.Store
	Food          *foodstockstore.Store
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Store:         distributionstore.New(db),
		Beneficiaries: beneficiarystore.New(db),
		Food:          foodstockstore.New(db),
		Log:           logger,
	}
}
