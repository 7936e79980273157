// internal/app/features/attendance/attendance.go
package attendance

import (
	"fmt"
	"net/http"
	"time"

	attendancestore "github.com/dalemusser/shelterhub/internal/app/store/attendance"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordInput struct {
	Beneficiaire string       `json:"beneficiaire" validate:"required,objectid" label:"Bénéficiaire"`
	Statut       string       `json:"statut" validate:"required,oneof=present absent excuse" label:"Statut"`
	Repas        models.Meals `json:"repas"`
	Notes        string       `json:"notes" validate:"max=1000"`
}

func (in recordInput) model(r *http.Request) models.Attendance {
	bid, _ := primitive.ObjectIDFromHex(in.Beneficiaire)
	return models.Attendance{
		Beneficiaire: bid,
		Statut:       in.Statut,
		Repas:        in.Repas,
		Notes:        in.Notes,
		RecordedBy:   authz.UserIDPtr(r),
	}
}

type markInput struct {
	recordInput
	Date *dates.Time `json:"date"`
}

// Mark handles POST /api/attendance: records one beneficiary for a day
// (today by default), replacing what was recorded before.
func (h *Handler) Mark(w http.ResponseWriter, r *http.Request) {
	var in markInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	a := in.model(r)
	a.Date = in.Date.Or(time.Now().UTC())

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "attendance mark")
	defer cancel()

	exists, err := h.Beneficiaries.Exists(ctx, a.Beneficiaire)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "check beneficiary failed", err)
		return
	}
	if !exists {
		httpx.NotFound(w, "Beneficiary not found")
		return
	}
	out, err := h.Store.Upsert(ctx, a)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "mark attendance failed", err)
		return
	}
	httpx.OK(w, out)
}

type bulkInput struct {
	Date    *dates.Time   `json:"date"`
	Records []recordInput `json:"records" validate:"required,min=1,max=500,dive"`
}

// Bulk handles POST /api/attendance/bulk: marks many beneficiaries for one
// day in a single write.
func (h *Handler) Bulk(w http.ResponseWriter, r *http.Request) {
	var in bulkInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	day := in.Date.Or(time.Now().UTC())

	rows := make([]models.Attendance, 0, len(in.Records))
	ids := make([]primitive.ObjectID, 0, len(in.Records))
	seen := map[primitive.ObjectID]bool{}
	for _, rec := range in.Records {
		a := rec.model(r)
		if seen[a.Beneficiaire] {
			httpx.BadRequest(w, fmt.Sprintf("Beneficiary %s appears twice", a.Beneficiaire.Hex()))
			return
		}
		seen[a.Beneficiaire] = true
		rows = append(rows, a)
		ids = append(ids, a.Beneficiaire)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "attendance bulk")
	defer cancel()

	refs, err := h.Beneficiaries.Refs(ctx, ids)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "check beneficiaries failed", err)
		return
	}
	for _, id := range ids {
		if _, ok := refs[id]; !ok {
			httpx.BadRequest(w, fmt.Sprintf("Unknown beneficiary %s", id.Hex()))
			return
		}
	}

	inserted, updated, err := h.Store.BulkMark(ctx, day, rows)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "bulk attendance failed", err)
		return
	}
	httpx.OK(w, map[string]any{
		"date":     dates.Day(day),
		"inserted": inserted,
		"updated":  updated,
	})
}

// List handles GET /api/attendance?date=&from=&to=&beneficiaire=&statut=.
// date selects a single day and takes precedence over from/to.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	bid, err := httpx.ParseObjectID(query.Get(r, "beneficiaire"))
	if err != nil {
		httpx.BadRequest(w, "Invalid beneficiaire")
		return
	}
	var rng dates.Range
	if v := query.Get(r, "date"); v != "" {
		d, err := dates.Parse(v)
		if err != nil {
			httpx.BadRequest(w, "Invalid date")
			return
		}
		from := dates.Day(d)
		to := from.AddDate(0, 0, 1)
		rng = dates.Range{From: &from, To: &to}
	} else if rng, err = dates.ParseRange(r); err != nil {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	if bid == nil && rng.IsZero() {
		from := dates.Today()
		to := from.AddDate(0, 0, 1)
		rng = dates.Range{From: &from, To: &to}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "attendance list")
	defer cancel()

	rows, err := h.Store.List(ctx, attendancestore.ListFilter{
		Beneficiaire: bid,
		Statut:       query.Get(r, "statut"),
		Range:        rng,
	})
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list attendance failed", err)
		return
	}
	if rows == nil {
		rows = []models.Attendance{}
	}
	httpx.OK(w, rows)
}

// Summary handles GET /api/attendance/summary?from=&to=: per-day counts by
// statut and meals. Defaults to the last 7 days.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	rng, err := dates.ParseRange(r)
	if err != nil {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	if rng.IsZero() {
		from := dates.Today().AddDate(0, 0, -6)
		rng.From = &from
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "attendance summary")
	defer cancel()

	rows, err := h.Store.Summary(ctx, rng)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "attendance summary failed", err)
		return
	}
	if rows == nil {
		rows = []attendancestore.DaySummary{}
	}
	httpx.OK(w, rows)
}

// Delete handles DELETE /api/attendance/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "attendance delete")
	defer cancel()

	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "delete attendance failed", err)
		return
	}
	if n == 0 {
		httpx.NotFound(w, "Attendance record not found")
		return
	}
	httpx.Message(w, "Attendance record deleted")
}
