// internal/app/features/beneficiaries/beneficiaries.go
package beneficiaries

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	beneficiarystore "github.com/dalemusser/shelterhub/internal/app/store/beneficiaries"
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

// List handles GET /api/beneficiaries?search=&statut=&sexe=&situationType=&page=&limit=&sort=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "beneficiary list")
	defer cancel()

	p := paging.Parse(r)
	sort := paging.ParseSort(r, beneficiarystore.SortFields, beneficiarystore.DefaultSort)
	rows, total, err := h.Store.List(ctx, beneficiarystore.ListFilter{
		Search:        query.Search(r, "search"),
		Statut:        query.Get(r, "statut"),
		Sexe:          query.Get(r, "sexe"),
		SituationType: query.Get(r, "situationType"),
	}, p, sort)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list beneficiaries failed", err)
		return
	}
	httpx.List(w, rows, paging.New(p, total))
}

type beneficiaryView struct {
	models.Beneficiary
	CreatedBy *models.UserRef `json:"createdBy,omitempty"`
}

// Get handles GET /api/beneficiaries/{id}. createdBy is populated.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "beneficiary get")
	defer cancel()

	b, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Beneficiary not found")
		return
	}
	view := beneficiaryView{Beneficiary: *b}
	if b.CreatedBy != nil {
		refs, err := h.Users.Refs(ctx, []primitive.ObjectID{*b.CreatedBy})
		if err != nil {
			h.Log.Warn("populate createdBy failed", zap.Error(err))
		} else if ref, ok := refs[*b.CreatedBy]; ok {
			view.CreatedBy = &ref
		}
	}
	httpx.OK(w, view)
}

type beneficiaryInput struct {
	NumeroDossier      string      `json:"numeroDossier" validate:"max=40"`
	Nom                string      `json:"nom" validate:"notblank,max=100" label:"Nom"`
	Prenom             string      `json:"prenom" validate:"notblank,max=100" label:"Prénom"`
	Sexe               string      `json:"sexe" validate:"omitempty,oneof=homme femme non_precise"`
	DateNaissance      *dates.Time `json:"dateNaissance"`
	LieuNaissance      string      `json:"lieuNaissance" validate:"max=100"`
	CIN                string      `json:"cin" validate:"max=20"`
	Telephone          string      `json:"telephone" validate:"max=30"`
	AdresseOrigine     string      `json:"adresseOrigine" validate:"max=300"`
	DateEntree         *dates.Time `json:"dateEntree"`
	DateSortie         *dates.Time `json:"dateSortie"`
	SituationType      string      `json:"situationType" validate:"omitempty,oneof=sans_abri errance mendicite abandon_familial violence autre"`
	SituationFamiliale string      `json:"situationFamiliale" validate:"omitempty,oneof=celibataire marie divorce veuf autre"`
	MaBaadAlIwaa       string      `json:"maBaadAlIwaa" validate:"omitempty,oneof=reintegration_familiale insertion_professionnelle transfert hebergement_autonome deces fugue en_cours autre"`
	Statut             string      `json:"statut" validate:"omitempty,oneof=actif sorti transfere decede"`
	Observations       string      `json:"observations" validate:"max=5000"`
}

func (in beneficiaryInput) model() models.Beneficiary {
	return models.Beneficiary{
		NumeroDossier:      in.NumeroDossier,
		Nom:                in.Nom,
		Prenom:             in.Prenom,
		Sexe:               in.Sexe,
		DateNaissance:      in.DateNaissance.Ptr(),
		LieuNaissance:      in.LieuNaissance,
		CIN:                in.CIN,
		Telephone:          in.Telephone,
		AdresseOrigine:     in.AdresseOrigine,
		DateEntree:         in.DateEntree.Or(time.Time{}),
		DateSortie:         in.DateSortie.Ptr(),
		SituationType:      in.SituationType,
		SituationFamiliale: in.SituationFamiliale,
		MaBaadAlIwaa:       in.MaBaadAlIwaa,
		Statut:             in.Statut,
		Observations:       in.Observations,
	}
}

// Create handles POST /api/beneficiaries. A missing numeroDossier is generated.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in beneficiaryInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "beneficiary create")
	defer cancel()

	b := in.model()
	b.CreatedBy = authz.UserIDPtr(r)
	created, err := h.Store.Create(ctx, b)
	if errors.Is(err, beneficiarystore.ErrDuplicateDossier) {
		httpx.Conflict(w, "A beneficiary with this dossier number already exists")
		return
	}
	if err != nil {
		httpx.ServerError(w, r, h.Log, "create beneficiary failed", err)
		return
	}
	h.AuditLog.RecordEvent(ctx, r, audit.EventBeneficiaryCreated, authz.UserID(r), created.ID,
		map[string]string{"numeroDossier": created.NumeroDossier})
	httpx.Created(w, created)
}

// Update handles PUT /api/beneficiaries/{id}. An empty numeroDossier keeps
// the current one.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in beneficiaryInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "beneficiary update")
	defer cancel()

	current, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Beneficiary not found")
		return
	}
	b := in.model()
	if b.NumeroDossier == "" {
		b.NumeroDossier = current.NumeroDossier
	}
	if b.DateEntree.IsZero() {
		b.DateEntree = current.DateEntree
	}

	err = h.Store.Update(ctx, id, b)
	if errors.Is(err, beneficiarystore.ErrDuplicateDossier) {
		httpx.Conflict(w, "A beneficiary with this dossier number already exists")
		return
	}
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Beneficiary not found")
		return
	}
	h.AuditLog.RecordEvent(ctx, r, audit.EventBeneficiaryUpdated, authz.UserID(r), id, nil)

	updated, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Beneficiary not found")
		return
	}
	httpx.OK(w, updated)
}

// Delete handles DELETE /api/beneficiaries/{id}. Distributions, attendance,
// exit logs and medication dispenses of the beneficiary go with it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "beneficiary delete")
	defer cancel()

	b, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Beneficiary not found")
		return
	}
	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "delete beneficiary failed", err)
		return
	}
	if n == 0 {
		httpx.NotFound(w, "Beneficiary not found")
		return
	}
	for _, d := range b.Documents {
		h.removeFile(r, d.Key)
	}
	h.AuditLog.RecordEvent(ctx, r, audit.EventBeneficiaryDeleted, authz.UserID(r), id,
		map[string]string{"numeroDossier": b.NumeroDossier})
	httpx.Message(w, "Beneficiary deleted")
}

// Stats handles GET /api/beneficiaries/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "beneficiary stats")
	defer cancel()

	st, err := h.Store.Stats(ctx, time.Now())
	if err != nil {
		httpx.ServerError(w, r, h.Log, "beneficiary stats failed", err)
		return
	}
	httpx.OK(w, st)
}
