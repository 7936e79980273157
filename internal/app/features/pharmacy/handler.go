// internal/app/features/pharmacy/handler.go
package pharmacy

import (
	beneficiarystore "github.com/dalemusser/shelterhub/internal/app/store/beneficiaries"
	medicationstore "github.com/dalemusser/shelterhub/internal/app/store/medications"
	"github.com/dalemusser/shelterhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the pharmacy: medication stock and dispenses.
type Handler struct {
	DB            *mongo.Database
	Store         *medicationstore.Store
	Beneficiaries *beneficiarystore.Store
	AuditLog      *auditlog.Logger
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Store:         medicationstore.New(db),
		Beneficiaries: beneficiarystore.New(db),
		AuditLog:      audit,
		Log:           logger,
	}
}
