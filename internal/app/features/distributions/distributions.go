// internal/app/features/distributions/distributions.go
package distributions

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/features/shared/stockhttp"
	distributionstore "github.com/dalemusser/shelterhub/internal/app/store/distributions"
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

// distributionView is a distribution with its beneficiary and stock item
// names filled in.
type distributionView struct {
	models.Distribution
	Beneficiaire  *models.BeneficiaryRef `json:"beneficiaire"`
	BeneficiaryID primitive.ObjectID     `json:"beneficiaireId"`
	StockItemNom  string                 `json:"stockItemNom,omitempty"`
}

func (h *Handler) populate(ctx context.Context, rows []models.Distribution) []distributionView {
	var bids, sids []primitive.ObjectID
	for _, d := range rows {
		bids = append(bids, d.Beneficiaire)
		if d.StockItem != nil {
			sids = append(sids, *d.StockItem)
		}
	}
	refs, err := h.Beneficiaries.Refs(ctx, bids)
	if err != nil {
		h.Log.Warn("populate beneficiaries failed", zap.Error(err))
	}
	names, err := h.Food.Names(ctx, sids)
	if err != nil {
		h.Log.Warn("populate stock items failed", zap.Error(err))
	}

	out := make([]distributionView, 0, len(rows))
	for _, d := range rows {
		v := distributionView{Distribution: d, BeneficiaryID: d.Beneficiaire}
		if ref, ok := refs[d.Beneficiaire]; ok {
			v.Beneficiaire = &ref
		}
		if d.StockItem != nil {
			v.StockItemNom = names[*d.StockItem]
		}
		out = append(out, v)
	}
	return out
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, f distributionstore.ListFilter) {
	rng, err := dates.ParseRange(r)
	if err != nil {
		httpx.BadRequest(w, "Invalid date range")
		return
	}
	f.Range = rng
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "distribution list")
	defer cancel()

	p := paging.Parse(r)
	rows, total, err := h.Store.List(ctx, f, p)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list distributions failed", err)
		return
	}
	httpx.List(w, h.populate(ctx, rows), paging.New(p, total))
}

// List handles GET /api/distributions?beneficiaire=&type=&from=&to=&page=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	bid, err := httpx.ParseObjectID(query.Get(r, "beneficiaire"))
	if err != nil {
		httpx.BadRequest(w, "Invalid beneficiaire")
		return
	}
	h.list(w, r, distributionstore.ListFilter{Beneficiaire: bid, Type: query.Get(r, "type")})
}

// ByBeneficiary handles GET /api/distributions/beneficiary/{beneficiaryId}.
func (h *Handler) ByBeneficiary(w http.ResponseWriter, r *http.Request) {
	bid, ok := httpx.IDParam(w, r, "beneficiaryId")
	if !ok {
		return
	}
	h.list(w, r, distributionstore.ListFilter{Beneficiaire: &bid, Type: query.Get(r, "type")})
}

// Get handles GET /api/distributions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "distribution get")
	defer cancel()

	d, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Distribution not found")
		return
	}
	httpx.OK(w, h.populate(ctx, []models.Distribution{*d})[0])
}

type createInput struct {
	Beneficiaire string      `json:"beneficiaire" validate:"required,objectid" label:"Bénéficiaire"`
	Type         string      `json:"type" validate:"required,oneof=alimentaire vetements hygiene medicament autre" label:"Type"`
	Article      string      `json:"article" validate:"max=200"`
	Quantite     float64     `json:"quantite" validate:"gt=0" label:"Quantité"`
	Unite        string      `json:"unite" validate:"max=20"`
	StockItem    string      `json:"stockItem" validate:"omitempty,objectid"`
	Date         *dates.Time `json:"date"`
	Notes        string      `json:"notes" validate:"max=2000"`
}

// Create handles POST /api/distributions. With stockItem the quantity is
// taken from that food stock item; the distribution is not recorded when
// the stock is insufficient (409).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	bid, _ := primitive.ObjectIDFromHex(in.Beneficiaire)
	stockItem, _ := httpx.ParseObjectID(in.StockItem)
	if stockItem == nil && in.Article == "" {
		httpx.BadRequest(w, "article or stockItem is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "distribution create")
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

	d, err := h.Store.Create(ctx, models.Distribution{
		Beneficiaire: bid,
		Type:         in.Type,
		Article:      in.Article,
		Quantite:     in.Quantite,
		Unite:        in.Unite,
		StockItem:    stockItem,
		Date:         in.Date.Or(time.Time{}),
		DistribuePar: authz.UserIDPtr(r),
		Notes:        in.Notes,
	})
	if err != nil {
		stockhttp.LedgerError(w, r, h.Log, err, "Stock item not found")
		return
	}
	httpx.Created(w, h.populate(ctx, []models.Distribution{d})[0])
}

type updateInput struct {
	Type  string      `json:"type" validate:"omitempty,oneof=alimentaire vetements hygiene medicament autre"`
	Date  *dates.Time `json:"date"`
	Notes string      `json:"notes" validate:"max=2000"`
}

// Update handles PUT /api/distributions/{id}. Only type, date and notes
// change; quantities stay as recorded.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in updateInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "distribution update")
	defer cancel()

	err := h.Store.Update(ctx, id, distributionstore.Update{Type: in.Type, Date: in.Date.Ptr(), Notes: in.Notes})
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Distribution not found")
		return
	}
	d, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Distribution not found")
		return
	}
	httpx.OK(w, h.populate(ctx, []models.Distribution{*d})[0])
}

// Delete handles DELETE /api/distributions/{id}. Stock is not restored.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "distribution delete")
	defer cancel()

	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "delete distribution failed", err)
		return
	}
	if n == 0 {
		httpx.NotFound(w, "Distribution not found")
		return
	}
	httpx.Message(w, "Distribution deleted")
}
