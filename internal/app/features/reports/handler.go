// internal/app/features/reports/handler.go
package reports

import (
	attendancestore "github.com/dalemusser/shelterhub/internal/app/store/attendance"
	beneficiarystore "github.com/dalemusser/shelterhub/internal/app/store/beneficiaries"
	distributionstore "github.com/dalemusser/shelterhub/internal/app/store/distributions"
	foodstockstore "github.com/dalemusser/shelterhub/internal/app/store/foodstock"
	medicationstore "github.com/dalemusser/shelterhub/internal/app/store/medications"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the report endpoints and their CSV exports. Reports only
// read; every figure comes from an aggregation in the owning store.
type Handler struct {
	DB                *mongo.Database
	Beneficiaries     *beneficiarystore.Store
	DistributionStore *distributionstore.Store
	Attendance        *attendancestore.Store
	Food              *foodstockstore.Store
	Medications       *medicationstore.Store
	Log               *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:                db,
		Beneficiaries:     beneficiarystore.New(db),
		DistributionStore: distributionstore.New(db),
		Attendance:        attendancestore.New(db),
		Food:              foodstockstore.New(db),
		Medications:       medicationstore.New(db),
		Log:               logger,
	}
}
