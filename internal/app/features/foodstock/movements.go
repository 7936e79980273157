// internal/app/features/foodstock/movements.go
package foodstock

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/features/shared/stockhttp"
	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	"github.com/dalemusser/shelterhub/internal/app/store/stockledger"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ledgerError(w http.ResponseWriter, r *http.Request, h *Handler, err error) {
	stockhttp.LedgerError(w, r, h.Log, err, "Stock item not found")
}

// Entree handles POST /api/stock/{id}/entree.
func (h *Handler) Entree(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in stockhttp.EntreeInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "food stock entree")
	defer cancel()

	item, err := h.Store.Restock(ctx, id, stockledger.Movement{
		Quantite:    in.Quantite,
		Motif:       in.Motif,
		Utilisateur: authz.UserIDPtr(r),
	})
	if err != nil {
		ledgerError(w, r, h, err)
		return
	}
	h.AuditLog.RecordEvent(ctx, r, audit.EventStockAdjusted, authz.UserID(r), id, map[string]string{
		"type":     models.MovementEntree,
		"quantite": strconv.FormatFloat(in.Quantite, 'f', -1, 64),
	})
	item.Historique = nil
	httpx.OK(w, item)
}

// Sortie handles POST /api/stock/{id}/sortie. The request is rejected with
// 409 when it exceeds the quantity on hand; nothing is deducted then.
func (h *Handler) Sortie(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in stockhttp.SortieInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	if in.Type == "" {
		in.Type = models.MovementSortie
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "food stock sortie")
	defer cancel()

	item, err := h.Store.Deduct(ctx, id, stockledger.Movement{
		Type:        in.Type,
		Quantite:    in.Quantite,
		Motif:       in.Motif,
		Utilisateur: authz.UserIDPtr(r),
	})
	if err != nil {
		ledgerError(w, r, h, err)
		return
	}
	h.AuditLog.RecordEvent(ctx, r, audit.EventStockAdjusted, authz.UserID(r), id, map[string]string{
		"type":     in.Type,
		"quantite": strconv.FormatFloat(in.Quantite, 'f', -1, 64),
	})
	item.Historique = nil
	httpx.OK(w, item)
}

// History handles GET /api/stock/history?type=&from=&to= across all items.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, nil)
}

// ItemHistory handles GET /api/stock/{id}/history?type=&from=&to=.
func (h *Handler) ItemHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	h.history(w, r, &id)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request, item *primitive.ObjectID) {
	rng, err := dates.ParseRange(r)
	if err != nil {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "food stock history")
	defer cancel()

	rows, err := h.Store.History(ctx, stockledger.HistoryFilter{
		Item:  item,
		Type:  query.Get(r, "type"),
		Range: rng,
	}, stockhttp.HistoryLimit)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "food stock history failed", err)
		return
	}
	if rows == nil {
		rows = []stockledger.HistoryRow{}
	}
	httpx.OK(w, rows)
}

// Consumption handles GET /api/stock/consumption?from=&to=&period=day|week|month.
// Without a range it covers the last 30 days.
func (h *Handler) Consumption(w http.ResponseWriter, r *http.Request) {
	rng, err := dates.ParseRange(r)
	if err != nil {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	if rng.IsZero() {
		from := dates.Today().AddDate(0, 0, -30)
		rng.From = &from
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "food stock consumption")
	defer cancel()

	periods, items, err := h.Store.Consumption(ctx, rng, query.Get(r, "period"))
	if err != nil {
		httpx.ServerError(w, r, h.Log, "food stock consumption failed", err)
		return
	}
	if periods == nil {
		periods = []stockledger.ConsumptionRow{}
	}
	if items == nil {
		items = []stockledger.ItemConsumption{}
	}
	httpx.OK(w, map[string]any{"periods": periods, "items": items})
}

// Alerts handles GET /api/stock/alerts?days=: items that are faible,
// critique or expire, and items expiring within days.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "food stock alerts")
	defer cancel()

	items, err := h.Store.Alerts(ctx, time.Now().UTC(), stockhttp.AlertDays(r))
	if err != nil {
		httpx.ServerError(w, r, h.Log, "food stock alerts failed", err)
		return
	}
	if items == nil {
		items = []models.FoodStock{}
	}
	httpx.OK(w, items)
}
