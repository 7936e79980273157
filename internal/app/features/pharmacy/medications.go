// internal/app/features/pharmacy/medications.go
package pharmacy

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/features/shared/stockhttp"
	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	medicationstore "github.com/dalemusser/shelterhub/internal/app/store/medications"
	"github.com/dalemusser/shelterhub/internal/app/store/stockledger"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
)

const notFound = "Medication not found"

var defaultSort = bson.D{{Key: "nomCI", Value: 1}, {Key: "_id", Value: 1}}

// List handles GET /api/pharmacy/medications?search=&forme=&statut=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "medication list")
	defer cancel()

	p := paging.Parse(r)
	sort := paging.ParseSort(r, medicationstore.SortFields, defaultSort)
	rows, total, err := h.Store.List(ctx, medicationstore.ListFilter{
		Search: query.Search(r, "search"),
		Forme:  query.Get(r, "forme"),
		Statut: query.Get(r, "statut"),
	}, p, sort)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list medications failed", err)
		return
	}
	httpx.List(w, rows, paging.New(p, total))
}

// Get handles GET /api/pharmacy/medications/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "medication get")
	defer cancel()

	m, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, notFound)
		return
	}
	httpx.OK(w, m)
}

type medicationInput struct {
	Nom            string      `json:"nom" validate:"notblank,max=200" label:"Nom"`
	Forme          string      `json:"forme" validate:"required,oneof=comprime gelule sirop injection pommade gouttes sachet autre" label:"Forme"`
	Dosage         string      `json:"dosage" validate:"max=100"`
	Quantite       *float64    `json:"quantite" validate:"omitempty,gte=0" label:"Quantité"`
	Unite          string      `json:"unite" validate:"required,max=20" label:"Unité"`
	SeuilCritique  float64     `json:"seuilCritique" validate:"gte=0" label:"Seuil critique"`
	DateExpiration *dates.Time `json:"dateExpiration"`
	Lot            string      `json:"lot" validate:"max=100"`
}

func (in medicationInput) quantite() float64 {
	if in.Quantite == nil {
		return 0
	}
	return *in.Quantite
}

func (in medicationInput) model() models.Medication {
	return models.Medication{
		Nom:            in.Nom,
		Forme:          in.Forme,
		Dosage:         in.Dosage,
		Quantite:       in.quantite(),
		Unite:          in.Unite,
		SeuilCritique:  in.SeuilCritique,
		DateExpiration: in.DateExpiration.Ptr(),
		Lot:            in.Lot,
	}
}

// Create handles POST /api/pharmacy/medications.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in medicationInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "medication create")
	defer cancel()

	m, err := h.Store.Create(ctx, in.model(), authz.UserIDPtr(r))
	if err != nil {
		httpx.ServerError(w, r, h.Log, "create medication failed", err)
		return
	}
	h.AuditLog.RecordEvent(ctx, r, audit.EventMedicationCreated, authz.UserID(r), m.ID,
		map[string]string{"nom": m.Nom, "lot": m.Lot})
	httpx.Created(w, m)
}

// Update handles PUT /api/pharmacy/medications/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in medicationInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "medication update")
	defer cancel()

	m, err := h.Store.Update(ctx, id, in.model(), in.Quantite, authz.UserIDPtr(r))
	if err != nil {
		stockhttp.LedgerError(w, r, h.Log, err, notFound)
		return
	}
	httpx.OK(w, m)
}

// Delete handles DELETE /api/pharmacy/medications/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "medication delete")
	defer cancel()

	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "delete medication failed", err)
		return
	}
	if n == 0 {
		httpx.NotFound(w, notFound)
		return
	}
	h.AuditLog.RecordEvent(ctx, r, audit.EventMedicationDeleted, authz.UserID(r), id, nil)
	httpx.Message(w, "Medication deleted")
}

// Restock handles POST /api/pharmacy/medications/{id}/restock.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in stockhttp.EntreeInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "medication restock")
	defer cancel()

	m, err := h.Store.Restock(ctx, id, stockledger.Movement{
		Quantite:    in.Quantite,
		Motif:       in.Motif,
		Utilisateur: authz.UserIDPtr(r),
	})
	if err != nil {
		stockhttp.LedgerError(w, r, h.Log, err, notFound)
		return
	}
	h.AuditLog.RecordEvent(ctx, r, audit.EventStockAdjusted, authz.UserID(r), id, map[string]string{
		"type":     models.MovementEntree,
		"quantite": strconv.FormatFloat(in.Quantite, 'f', -1, 64),
	})
	m.Historique = nil
	httpx.OK(w, m)
}

// History handles GET /api/pharmacy/medications/{id}/history?type=&from=&to=.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	rng, err := dates.ParseRange(r)
	if err != nil {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "medication history")
	defer cancel()

	rows, err := h.Store.History(ctx, stockledger.HistoryFilter{Item: &id, Type: query.Get(r, "type"), Range: rng}, stockhttp.HistoryLimit)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "medication history failed", err)
		return
	}
	if rows == nil {
		rows = []stockledger.HistoryRow{}
	}
	httpx.OK(w, rows)
}

// Alerts handles GET /api/pharmacy/medications/alerts?days=.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "medication alerts")
	defer cancel()

	items, err := h.Store.Alerts(ctx, time.Now().UTC(), stockhttp.AlertDays(r))
	if err != nil {
		httpx.ServerError(w, r, h.Log, "medication alerts failed", err)
		return
	}
	if items == nil {
		items = []models.Medication{}
	}
	httpx.OK(w, items)
}
