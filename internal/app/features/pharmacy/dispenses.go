// internal/app/features/pharmacy/dispenses.go
package pharmacy

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/features/shared/stockhttp"
	medicationstore "github.com/dalemusser/shelterhub/internal/app/store/medications"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type dispenseView struct {
	models.MedicationDispense
	BeneficiaireRef *models.BeneficiaryRef `json:"beneficiaireRef,omitempty"`
	MedicationNom   string                 `json:"medicationNom,omitempty"`
}

func (h *Handler) populate(ctx context.Context, rows []models.MedicationDispense) []dispenseView {
	var bids, mids []primitive.ObjectID
	for _, d := range rows {
		bids = append(bids, d.Beneficiaire)
		mids = append(mids, d.Medication)
	}
	refs, err := h.Beneficiaries.Refs(ctx, bids)
	if err != nil {
		h.Log.Warn("populate beneficiaries failed", zap.Error(err))
	}
	names, err := h.Store.Names(ctx, mids)
	if err != nil {
		h.Log.Warn("populate medications failed", zap.Error(err))
	}
	out := make([]dispenseView, 0, len(rows))
	for _, d := range rows {
		v := dispenseView{MedicationDispense: d, MedicationNom: names[d.Medication]}
		if ref, ok := refs[d.Beneficiaire]; ok {
			v.BeneficiaireRef = &ref
		}
		out = append(out, v)
	}
	return out
}

type dispenseInput struct {
	Beneficiaire string      `json:"beneficiaire" validate:"required,objectid" label:"Bénéficiaire"`
	Medication   string      `json:"medication" validate:"required,objectid" label:"Médicament"`
	Quantite     float64     `json:"quantite" validate:"gt=0" label:"Quantité"`
	Posologie    string      `json:"posologie" validate:"max=300"`
	Prescripteur string      `json:"prescripteur" validate:"max=200"`
	Date         *dates.Time `json:"date"`
	Notes        string      `json:"notes" validate:"max=2000"`
}

// Dispense handles POST /api/pharmacy/dispenses. The quantity is deducted
// from the medication in the same step; 409 when stock is insufficient.
func (h *Handler) Dispense(w http.ResponseWriter, r *http.Request) {
	var in dispenseInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	bid, _ := primitive.ObjectIDFromHex(in.Beneficiaire)
	mid, _ := primitive.ObjectIDFromHex(in.Medication)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "medication dispense")
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

	d, err := h.Store.Dispense(ctx, models.MedicationDispense{
		Beneficiaire: bid,
		Medication:   mid,
		Quantite:     in.Quantite,
		Posologie:    in.Posologie,
		Prescripteur: in.Prescripteur,
		Date:         in.Date.Or(time.Time{}),
		DispensePar:  authz.UserIDPtr(r),
		Notes:        in.Notes,
	})
	if err != nil {
		stockhttp.LedgerError(w, r, h.Log, err, notFound)
		return
	}
	httpx.Created(w, h.populate(ctx, []models.MedicationDispense{d})[0])
}

func (h *Handler) dispenses(w http.ResponseWriter, r *http.Request, f medicationstore.DispenseFilter) {
	rng, err := dates.ParseRange(r)
	if err != nil {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	f.Range = rng
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "dispense list")
	defer cancel()

	p := paging.Parse(r)
	rows, total, err := h.Store.ListDispenses(ctx, f, p)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list dispenses failed", err)
		return
	}
	httpx.List(w, h.populate(ctx, rows), paging.New(p, total))
}

// Dispenses handles GET /api/pharmacy/dispenses?beneficiaire=&medication=&from=&to=.
func (h *Handler) Dispenses(w http.ResponseWriter, r *http.Request) {
	bid, err := httpx.ParseObjectID(query.Get(r, "beneficiaire"))
	if err != nil {
		httpx.BadRequest(w, "Invalid beneficiaire")
		return
	}
	mid, err := httpx.ParseObjectID(query.Get(r, "medication"))
	if err != nil {
		httpx.BadRequest(w, "Invalid medication")
		return
	}
	h.dispenses(w, r, medicationstore.DispenseFilter{Beneficiaire: bid, Medication: mid})
}

// DispensesByBeneficiary handles GET /api/pharmacy/dispenses/beneficiary/{beneficiaryId}.
func (h *Handler) DispensesByBeneficiary(w http.ResponseWriter, r *http.Request) {
	bid, ok := httpx.IDParam(w, r, "beneficiaryId")
	if !ok {
		return
	}
	h.dispenses(w, r, medicationstore.DispenseFilter{Beneficiaire: &bid})
}
