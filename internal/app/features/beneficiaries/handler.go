// internal/app/features/beneficiaries/handler.go
package beneficiaries

import (
	beneficiarystore "github.com/dalemusser/shelterhub/internal/app/store/beneficiaries"
	userstore "github.com/dalemusser/shelterhub/internal/app/store/users"
	"github.com/dalemusser/shelterhub/internal/app/system/auditlog"
	"github.com/dalemusser/shelterhub/internal/app/system/uploads"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultImportMaxRows applies when the configured limit is not positive.
const DefaultImportMaxRows = 2000

// Handler serves beneficiary records, their documents and follow-up notes,
// spreadsheet import and statistics.
type Handler struct {
	DB            *mongo.Database
	Store         *beneficiarystore.Store
	Users         *userstore.Store
	Files         *uploads.Local
	AuditLog      *auditlog.Logger
	Log           *zap.Logger
	ImportMaxRows int
}

func NewHandler(db *mongo.Database, files *uploads.Local, audit *auditlog.Logger, importMaxRows int, logger *zap.Logger) *Handler {
	if importMaxRows <= 0 {
		importMaxRows = DefaultImportMaxRows
	}
	return &Handler{
		DB:            db,
		Store:         beneficiarystore.New(db),
		Users:         userstore.New(db),
		Files:         files,
		AuditLog:      audit,
		Log:           logger,
		ImportMaxRows: importMaxRows,
	}
}
