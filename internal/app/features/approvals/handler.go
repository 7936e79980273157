// internal/app/features/approvals/handler.go
package approvals

import (
	approvalstore "github.com/dalemusser/shelterhub/internal/app/store/approvals"
	beneficiarystore "github.com/dalemusser/shelterhub/internal/app/store/beneficiaries"
	userstore "github.com/dalemusser/shelterhub/internal/app/store/users"
	"github.com/dalemusser/shelterhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves approval requests.
type Handler struct {
	DB            *mongo.Database
	Store         *approvalstore.Store
	Users         *userstore.Store
	Beneficiaries *beneficiarystore.Store
	AuditLog      *auditlog.Logger
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Store:         approvalstore.New(db),
		Users:         userstore.New(db),
		Beneficiaries: beneficiarystore.New(db),
		AuditLog:      audit,
		Log:           logger,
	}
}
