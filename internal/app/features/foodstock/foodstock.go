// internal/app/features/foodstock/foodstock.go
package foodstock

import (
	"net/http"

	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	foodstockstore "github.com/dalemusser/shelterhub/internal/app/store/foodstock"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// List handles GET /api/stock?search=&categorie=&statut=&page=&limit=&sort=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "food stock list")
	defer cancel()

	p := paging.Parse(r)
	sort := paging.ParseSort(r, foodstockstore.SortFields, foodstockstore.DefaultSort)
	rows, total, err := h.Store.List(ctx, foodstockstore.ListFilter{
		Search:    query.Search(r, "search"),
		Categorie: query.Get(r, "categorie"),
		Statut:    query.Get(r, "statut"),
	}, p, sort)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list food stock failed", err)
		return
	}
	httpx.List(w, rows, paging.New(p, total))
}

// Get handles GET /api/stock/{id}. The response includes the history.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "food stock get")
	defer cancel()

	item, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Stock item not found")
		return
	}
	httpx.OK(w, item)
}

type itemInput struct {
	Nom            string      `json:"nom" validate:"notblank,max=200" label:"Nom"`
	Categorie      string      `json:"categorie" validate:"required,oneof=feculents conserves produits_laitiers fruits_legumes viandes_poissons boissons epicerie hygiene autre" label:"Catégorie"`
	Quantite       *float64    `json:"quantite" validate:"omitempty,gte=0" label:"Quantité"`
	Unite          string      `json:"unite" validate:"required,oneof=kg g l ml piece boite sac carton" label:"Unité"`
	SeuilCritique  float64     `json:"seuilCritique" validate:"gte=0" label:"Seuil critique"`
	DateExpiration *dates.Time `json:"dateExpiration"`
	Fournisseur    string      `json:"fournisseur" validate:"max=200"`
	Emplacement    string      `json:"emplacement" validate:"max=200"`
}

func (in itemInput) quantite() float64 {
	if in.Quantite == nil {
		return 0
	}
	return *in.Quantite
}

func (in itemInput) model() models.FoodStock {
	return models.FoodStock{
		Nom:            in.Nom,
		Categorie:      in.Categorie,
		Quantite:       in.quantite(),
		Unite:          in.Unite,
		SeuilCritique:  in.SeuilCritique,
		DateExpiration: in.DateExpiration.Ptr(),
		Fournisseur:    in.Fournisseur,
		Emplacement:    in.Emplacement,
	}
}

// Create handles POST /api/stock. A starting quantity is logged as entree.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in itemInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "food stock create")
	defer cancel()

	item, err := h.Store.Create(ctx, in.model(), authz.UserIDPtr(r))
	if err != nil {
		httpx.ServerError(w, r, h.Log, "create food stock failed", err)
		return
	}
	h.AuditLog.RecordEvent(ctx, r, audit.EventStockCreated, authz.UserID(r), item.ID,
		map[string]string{"nom": item.Nom})
	httpx.Created(w, item)
}

// Update handles PUT /api/stock/{id}. A quantity change is logged as
// ajustement; a body without quantite leaves the quantity alone.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in itemInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "food stock update")
	defer cancel()

	item, err := h.Store.Update(ctx, id, in.model(), in.Quantite, authz.UserIDPtr(r))
	if err != nil {
		ledgerError(w, r, h, err)
		return
	}
	httpx.OK(w, item)
}

// Delete handles DELETE /api/stock/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "food stock delete")
	defer cancel()

	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "delete food stock failed", err)
		return
	}
	if n == 0 {
		httpx.NotFound(w, "Stock item not found")
		return
	}
	h.AuditLog.RecordEvent(ctx, r, audit.EventStockDeleted, authz.UserID(r), id, nil)
	httpx.Message(w, "Stock item deleted")
}
