// internal/app/features/exitlogs/exits.go
package exitlogs

import (
	"context"
	"errors"
	"net/http"
	"time"

	exitlogstore "github.com/dalemusser/shelterhub/internal/app/store/exitlogs"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type exitView struct {
	models.ExitLog
	BeneficiaireRef *models.BeneficiaryRef `json:"beneficiaireRef,omitempty"`
}

func (h *Handler) views(ctx context.Context, rows []models.ExitLog) []exitView {
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, e := range rows {
		ids = append(ids, e.Beneficiaire)
	}
	refs := h.refs(ctx, ids)
	out := make([]exitView, 0, len(rows))
	for _, e := range rows {
		v := exitView{ExitLog: e}
		if ref, ok := refs[e.Beneficiaire]; ok {
			v.BeneficiaireRef = &ref
		}
		out = append(out, v)
	}
	return out
}

func (h *Handler) exitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, exitlogstore.ErrAlreadyOut):
		httpx.Conflict(w, "Beneficiary is already out")
	case errors.Is(err, exitlogstore.ErrNotOut):
		httpx.Conflict(w, "Exit is not open")
	case errors.Is(err, exitlogstore.ErrBadReturnWindow):
		httpx.BadRequest(w, "expectedReturnTime must be after exitTime")
	default:
		httpx.StoreError(w, r, h.Log, err, "Exit not found")
	}
}

type createInput struct {
	Beneficiaire       string      `json:"beneficiaire" validate:"required,objectid" label:"Bénéficiaire"`
	ExitTime           *dates.Time `json:"exitTime"`
	ExpectedReturnTime dates.Time  `json:"expectedReturnTime"`
	Motif              string      `json:"motif" validate:"max=300"`
	Destination        string      `json:"destination" validate:"max=300"`
	Accompagnant       string      `json:"accompagnant" validate:"max=200"`
	Notes              string      `json:"notes" validate:"max=2000"`
}

// Create handles POST /api/exits. A beneficiary with an open exit gets 409.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	if in.ExpectedReturnTime.IsZero() {
		httpx.BadRequest(w, "expectedReturnTime is required")
		return
	}
	bid, _ := primitive.ObjectIDFromHex(in.Beneficiaire)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "exit create")
	defer cancel()

	exists, err := h.Beneficiaries.Exists(ctx, bid)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "check beneficiary failed", err)
		return
	}
	if !exists {
		httpx.NotFound(w, "Beneficiary not found")
		return
	}

	e, err := h.Store.Create(ctx, models.ExitLog{
		Beneficiaire:       bid,
		ExitTime:           in.ExitTime.Or(time.Time{}),
		ExpectedReturnTime: in.ExpectedReturnTime.UTC(),
		Motif:              in.Motif,
		Destination:        in.Destination,
		Accompagnant:       in.Accompagnant,
		RecordedBy:         authz.UserIDPtr(r),
		Notes:              in.Notes,
	})
	if err != nil {
		h.exitError(w, r, err)
		return
	}
	httpx.Created(w, h.views(ctx, []models.ExitLog{e})[0])
}

type returnInput struct {
	ActualReturnTime *dates.Time `json:"actualReturnTime"`
	Notes            string      `json:"notes" validate:"max=2000"`
}

// Return handles PUT /api/exits/{id}/return. The exit becomes late when the
// return is after the expected time, returned otherwise.
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in returnInput
	if r.ContentLength != 0 && !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "exit return")
	defer cancel()

	e, err := h.Store.RecordReturn(ctx, id, in.ActualReturnTime.Ptr(), authz.UserIDPtr(r), in.Notes)
	if err != nil {
		h.exitError(w, r, err)
		return
	}
	httpx.OK(w, h.views(ctx, []models.ExitLog{*e})[0])
}

// MarkAbsent handles PUT /api/exits/{id}/absent.
func (h *Handler) MarkAbsent(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "exit absent")
	defer cancel()

	e, err := h.Store.MarkAbsent(ctx, id)
	if err != nil {
		h.exitError(w, r, err)
		return
	}
	httpx.OK(w, h.views(ctx, []models.ExitLog{*e})[0])
}

// List handles GET /api/exits?status=&beneficiaire=&from=&to=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	bid, err := httpx.ParseObjectID(query.Get(r, "beneficiaire"))
	if err != nil {
		httpx.BadRequest(w, "Invalid beneficiaire")
		return
	}
	rng, err := dates.ParseRange(r)
	if err != nil {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "exit list")
	defer cancel()

	p := paging.Parse(r)
	rows, total, err := h.Store.List(ctx, exitlogstore.ListFilter{
		Status:       query.Get(r, "status"),
		Beneficiaire: bid,
		Range:        rng,
	}, p)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list exits failed", err)
		return
	}
	httpx.List(w, h.views(ctx, rows), paging.New(p, total))
}

// CurrentlyOut handles GET /api/exits/current: exits in status out or absent.
func (h *Handler) CurrentlyOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "exit current")
	defer cancel()

	rows, err := h.Store.CurrentlyOut(ctx)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list current exits failed", err)
		return
	}
	httpx.OK(w, h.views(ctx, rows))
}

// Get handles GET /api/exits/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "exit get")
	defer cancel()

	e, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Exit not found")
		return
	}
	httpx.OK(w, h.views(ctx, []models.ExitLog{*e})[0])
}

// Delete handles DELETE /api/exits/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "exit delete")
	defer cancel()

	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "delete exit failed", err)
		return
	}
	if n == 0 {
		httpx.NotFound(w, "Exit not found")
		return
	}
	httpx.Message(w, "Exit deleted")
}

// Stats handles GET /api/exits/stats?from=&to=: counts per status over the
// range (all time without one) and how many of those are still open.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rng, err := dates.ParseRange(r)
	if err != nil {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "exit stats")
	defer cancel()

	counts, err := h.Store.CountByStatus(ctx, rng)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "exit stats failed", err)
		return
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	httpx.OK(w, map[string]any{
		"byStatus": counts,
		"total":    total,
		"open":     counts[models.ExitOut] + counts[models.ExitAbsent],
	})
}
