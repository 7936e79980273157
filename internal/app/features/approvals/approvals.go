// internal/app/features/approvals/approvals.go
package approvals

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	approvalstore "github.com/dalemusser/shelterhub/internal/app/store/approvals"
	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// approvalView fills in who asked, who decided and for which beneficiary.
type approvalView struct {
	models.ApprovalRequest
	RequestedByRef  *models.UserRef        `json:"requestedByRef,omitempty"`
	ReviewedByRef   *models.UserRef        `json:"reviewedByRef,omitempty"`
	BeneficiaireRef *models.BeneficiaryRef `json:"beneficiaireRef,omitempty"`
}

func (h *Handler) populate(ctx context.Context, rows []models.ApprovalRequest) []approvalView {
	var uids, bids []primitive.ObjectID
	for _, a := range rows {
		uids = append(uids, a.RequestedBy)
		if a.ReviewedBy != nil {
			uids = append(uids, *a.ReviewedBy)
		}
		if a.Beneficiaire != nil {
			bids = append(bids, *a.Beneficiaire)
		}
	}
	users, err := h.Users.Refs(ctx, uids)
	if err != nil {
		h.Log.Warn("populate users failed", zap.Error(err))
	}
	bens, err := h.Beneficiaries.Refs(ctx, bids)
	if err != nil {
		h.Log.Warn("populate beneficiaries failed", zap.Error(err))
	}

	out := make([]approvalView, 0, len(rows))
	for _, a := range rows {
		v := approvalView{ApprovalRequest: a}
		if ref, ok := users[a.RequestedBy]; ok {
			v.RequestedByRef = &ref
		}
		if a.ReviewedBy != nil {
			if ref, ok := users[*a.ReviewedBy]; ok {
				v.ReviewedByRef = &ref
			}
		}
		if a.Beneficiaire != nil {
			if ref, ok := bens[*a.Beneficiaire]; ok {
				v.BeneficiaireRef = &ref
			}
		}
		out = append(out, v)
	}
	return out
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, approvalstore.ErrNotPending):
		httpx.Conflict(w, "Request is no longer pending")
	case errors.Is(err, approvalstore.ErrNotRequester):
		httpx.Forbidden(w, "Only the requester can cancel this request")
	default:
		httpx.StoreError(w, r, h.Log, err, "Request not found")
	}
}

// List handles GET /api/approvals?status=&type=. Management sees every
// request; everyone else sees their own.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r)
	f := approvalstore.ListFilter{
		Status: query.Get(r, "status"),
		Type:   query.Get(r, "type"),
	}
	if !authz.IsManagement(r) || query.Get(r, "mine") == "true" {
		f.RequestedBy = authz.UserIDPtr(r)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "approvals list")
	defer cancel()

	rows, total, err := h.Store.List(ctx, f, p)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list approvals failed", err)
		return
	}
	httpx.List(w, h.populate(ctx, rows), paging.New(p, total))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "approval get")
	defer cancel()

	a, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Request not found")
		return
	}
	if !authz.IsManagement(r) && !authz.IsSelf(r, a.RequestedBy) {
		httpx.Forbidden(w, "You do not have access to this request")
		return
	}
	httpx.OK(w, h.populate(ctx, []models.ApprovalRequest{*a})[0])
}

type createInput struct {
	Type         string   `json:"type" validate:"required,oneof=sortie_exceptionnelle achat transfert hebergement autre" label:"Type"`
	Title        string   `json:"title" validate:"required,notblank,max=200" label:"Title"`
	Description  string   `json:"description" validate:"max=5000"`
	Beneficiaire string   `json:"beneficiaire" validate:"omitempty,objectid" label:"Bénéficiaire"`
	Montant      *float64 `json:"montant" validate:"omitempty,gte=0" label:"Montant"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	bid, _ := httpx.ParseObjectID(in.Beneficiaire)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "approval create")
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

	a, err := h.Store.Create(ctx, models.ApprovalRequest{
		Type:         in.Type,
		Title:        in.Title,
		Description:  in.Description,
		Beneficiaire: bid,
		Montant:      in.Montant,
		RequestedBy:  authz.UserID(r),
	})
	if err != nil {
		httpx.ServerError(w, r, h.Log, "create approval failed", err)
		return
	}
	httpx.Created(w, a)
}

type decisionInput struct {
	Comment string `json:"comment" validate:"max=2000" label:"Comment"`
}

// Approve handles PUT /api/approvals/{id}/approve {comment?}.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// Reject handles PUT /api/approvals/{id}/reject {comment}. A comment is
// required.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in decisionInput
	if r.ContentLength != 0 && !httpx.Bind(w, r, &in) {
		return
	}
	if !approve && strings.TrimSpace(in.Comment) == "" {
		httpx.BadRequest(w, "A comment is required to reject a request")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "approval decide")
	defer cancel()

	reviewer := authz.UserID(r)
	a, err := h.Store.Decide(ctx, id, approve, reviewer, in.Comment)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	event := audit.EventApprovalRejected
	if approve {
		event = audit.EventApprovalApproved
	}
	details := map[string]string{"type": a.Type, "title": a.Title}
	if a.Montant != nil {
		details["montant"] = strconv.FormatFloat(*a.Montant, 'f', -1, 64)
	}
	h.AuditLog.RecordEvent(ctx, r, event, reviewer, a.ID, details)

	httpx.OK(w, h.populate(ctx, []models.ApprovalRequest{*a})[0])
}

// Cancel handles PUT /api/approvals/{id}/cancel. Only the requester can
// withdraw a pending request.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "approval cancel")
	defer cancel()

	a, err := h.Store.Cancel(ctx, id, authz.UserID(r))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	httpx.OK(w, a)
}
