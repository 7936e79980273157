// internal/app/features/exitlogs/visits.go
package exitlogs

import (
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
)

type visitInput struct {
	VisitorName  string      `json:"visitorName" validate:"notblank,max=200" label:"Nom du visiteur"`
	VisitorCIN   string      `json:"visitorCin" validate:"max=20"`
	Relation     string      `json:"relation" validate:"max=100"`
	Beneficiaire string      `json:"beneficiaire" validate:"omitempty,objectid"`
	ArrivalTime  *dates.Time `json:"arrivalTime"`
	Motif        string      `json:"motif" validate:"max=300"`
}

// CreateVisit handles POST /api/visits.
func (h *Handler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	var in visitInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	bid, _ := httpx.ParseObjectID(in.Beneficiaire)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "visit create")
	defer cancel()

	if bid != nil {
		exists, err := h.Beneficiaries.Exists(ctx, *bid)
		if err != nil {
			httpx.ServerError(w, r, h.Log, "check beneficiary failed", err)
			return
		}
		if !exists {
			httpx.NotFound(w, "Beneficiary not found")
			return
		}
	}

	v, err := h.Store.CreateVisit(ctx, models.Visit{
		VisitorName:  in.VisitorName,
		VisitorCIN:   in.VisitorCIN,
		Relation:     in.Relation,
		Beneficiaire: bid,
		ArrivalTime:  in.ArrivalTime.Or(time.Time{}),
		Motif:        in.Motif,
		RecordedBy:   authz.UserIDPtr(r),
	})
	if err != nil {
		httpx.ServerError(w, r, h.Log, "create visit failed", err)
		return
	}
	httpx.Created(w, v)
}

// ListVisits handles GET /api/visits?beneficiaire=&onSite=true&from=&to=.
func (h *Handler) ListVisits(w http.ResponseWriter, r *http.Request) {
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
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "visit list")
	defer cancel()

	p := paging.Parse(r)
	rows, total, err := h.Store.ListVisits(ctx, exitlogstore.VisitFilter{
		Beneficiaire: bid,
		OnSite:       query.Get(r, "onSite") == "true",
		Range:        rng,
	}, p)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list visits failed", err)
		return
	}
	httpx.List(w, rows, paging.New(p, total))
}

type checkoutInput struct {
	DepartureTime *dates.Time `json:"departureTime"`
}

// CheckoutVisit handles PUT /api/visits/{id}/checkout.
func (h *Handler) CheckoutVisit(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in checkoutInput
	if r.ContentLength != 0 && !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "visit checkout")
	defer cancel()

	v, err := h.Store.CheckoutVisit(ctx, id, in.DepartureTime.Ptr())
	if errors.Is(err, exitlogstore.ErrAlreadyLeft) {
		httpx.Conflict(w, "Visitor already checked out")
		return
	}
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Visit not found")
		return
	}
	httpx.OK(w, v)
}
