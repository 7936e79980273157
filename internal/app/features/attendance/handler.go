// internal/app/features/attendance/handler.go
package attendance

import (
	attendancestore "github.com/dalemusser/shelterhub/internal/app/store/attendance"
	beneficiarystore "github.com/dalemusser/shelterhub/internal/app/store/beneficiaries"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxBulkRows caps one bulk request.
const MaxBulkRows = 500

// Handler serves daily attendance and meals.
type Handler struct {
	DB            *mongo.Database
	Store         *attendancestore.Store
	Beneficiaries *beneficiarystore.Store
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Store:         attendancestore.New(db),
		Beneficiaries: beneficiarystore.New(db),
		Log:           logger,
	}
}
