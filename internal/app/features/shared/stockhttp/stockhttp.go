// Package stockhttp holds the request shapes and error mapping shared by the
// food stock and pharmacy handlers.
package stockhttp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/shelterhub/internal/app/store/stockledger"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultAlertDays is the expiry horizon of the alerts endpoints.
const DefaultAlertDays = 30

// HistoryLimit caps the rows returned by history endpoints.
const HistoryLimit = 500

// EntreeInput is the body of POST /{id}/entree and /{id}/restock.
type EntreeInput struct {
	Quantite float64 `json:"quantite" validate:"gt=0" label:"Quantité"`
	Motif    string  `json:"motif" validate:"max=300"`
}

// SortieInput is the body of POST /{id}/sortie. Type is sortie (default) or
// perte for losses and spoilage.
type SortieInput struct {
	Quantite float64 `json:"quantite" validate:"gt=0" label:"Quantité"`
	Motif    string  `json:"motif" validate:"notblank,max=300" label:"Motif"`
	Type     string  `json:"type" validate:"omitempty,oneof=sortie perte"`
}

// LedgerError maps ledger errors to responses: insufficient stock and
// concurrent edits are 409, a bad quantity is 400, a missing item 404.
func LedgerError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, stockledger.ErrInsufficientStock):
		httpx.Conflict(w, "Insufficient stock")
	case errors.Is(err, stockledger.ErrConflict):
		httpx.Conflict(w, "Stock changed during update, retry")
	case errors.Is(err, stockledger.ErrInvalidQuantity):
		httpx.BadRequest(w, err.Error())
	case errors.Is(err, mongo.ErrNoDocuments):
		httpx.NotFound(w, notFound)
	default:
		httpx.ServerError(w, r, log, "stock operation failed", err)
	}
}

// AlertDays reads ?days=, falling back to DefaultAlertDays.
func AlertDays(r *http.Request) int {
	if n, err := strconv.Atoi(query.Get(r, "days")); err == nil && n >= 0 && n <= 365 {
		return n
	}
	return DefaultAlertDays
}
