// internal/app/features/tickets/tickets.go
package tickets

import (
	"context"
	"net/http"

	ticketstore "github.com/dalemusser/shelterhub/internal/app/store/tickets"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type commentView struct {
	models.TicketComment
	AuthorRef *models.UserRef `json:"authorRef,omitempty"`
}

type ticketView struct {
	models.Ticket
	CreatedByRef  *models.UserRef `json:"createdByRef,omitempty"`
	AssignedToRef *models.UserRef `json:"assignedToRef,omitempty"`
	Comments      []commentView   `json:"comments"`
}

func (h *Handler) populate(ctx context.Context, rows []models.Ticket) []ticketView {
	var ids []primitive.ObjectID
	for _, t := range rows {
		ids = append(ids, t.CreatedBy)
		if t.AssignedTo != nil {
			ids = append(ids, *t.AssignedTo)
		}
		for _, c := range t.Comments {
			ids = append(ids, c.Author)
		}
	}
	refs, err := h.Users.Refs(ctx, ids)
	if err != nil {
		h.Log.Warn("populate users failed", zap.Error(err))
	}
	ref := func(id primitive.ObjectID) *models.UserRef {
		if u, ok := refs[id]; ok {
			return &u
		}
		return nil
	}

	out := make([]ticketView, 0, len(rows))
	for _, t := range rows {
		v := ticketView{Ticket: t, CreatedByRef: ref(t.CreatedBy), Comments: []commentView{}}
		if t.AssignedTo != nil {
			v.AssignedToRef = ref(*t.AssignedTo)
		}
		for _, c := range t.Comments {
			v.Comments = append(v.Comments, commentView{TicketComment: c, AuthorRef: ref(c.Author)})
		}
		out = append(out, v)
	}
	return out
}

// canEdit reports whether the current user created the ticket, is assigned
// to it, or is management.
func canEdit(r *http.Request, t *models.Ticket) bool {
	if authz.IsManagement(r) || authz.IsSelf(r, t.CreatedBy) {
		return true
	}
	return t.AssignedTo != nil && authz.IsSelf(r, *t.AssignedTo)
}

// List handles GET /api/tickets?status=&priority=&category=&assignedTo=&mine=true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	assigned, err := httpx.ParseObjectID(query.Get(r, "assignedTo"))
	if err != nil {
		httpx.BadRequest(w, "Invalid assignedTo")
		return
	}
	p := paging.Parse(r)
	f := ticketstore.ListFilter{
		Status:     query.Get(r, "status"),
		Priority:   query.Get(r, "priority"),
		Category:   query.Get(r, "category"),
		AssignedTo: assigned,
	}
	if query.Get(r, "mine") == "true" {
		f.Mine = authz.UserIDPtr(r)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "tickets list")
	defer cancel()

	rows, total, err := h.Store.List(ctx, f, p)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list tickets failed", err)
		return
	}
	httpx.List(w, h.populate(ctx, rows), paging.New(p, total))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "ticket get")
	defer cancel()

	t, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Ticket not found")
		return
	}
	httpx.OK(w, h.populate(ctx, []models.Ticket{*t})[0])
}

type ticketInput struct {
	Title       string `json:"title" validate:"required,notblank,max=200" label:"Title"`
	Description string `json:"description" validate:"required,notblank,max=10000" label:"Description"`
	Category    string `json:"category" validate:"omitempty,oneof=maintenance informatique logistique autre" label:"Category"`
	Priority    string `json:"priority" validate:"omitempty,oneof=basse moyenne haute urgente" label:"Priority"`
}

func (in ticketInput) model() models.Ticket {
	t := models.Ticket{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Priority:    in.Priority,
	}
	if t.Category == "" {
		t.Category = "autre"
	}
	if t.Priority == "" {
		t.Priority = "moyenne"
	}
	return t
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in ticketInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	t := in.model()
	t.CreatedBy = authz.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "ticket create")
	defer cancel()

	out, err := h.Store.Create(ctx, t)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "create ticket failed", err)
		return
	}
	httpx.Created(w, out)
}

// loadEditable fetches the ticket and checks the current user may change it.
// It writes the response and returns nil on failure.
func (h *Handler) loadEditable(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID) *models.Ticket {
	t, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Ticket not found")
		return nil
	}
	if !canEdit(r, t) {
		httpx.Forbidden(w, "You cannot modify this ticket")
		return nil
	}
	return t
}

// Update handles PUT /api/tickets/{id}: title, description, category and
// priority.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in ticketInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "ticket update")
	defer cancel()

	if h.loadEditable(ctx, w, r, id) == nil {
		return
	}
	out, err := h.Store.Update(ctx, id, in.model())
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Ticket not found")
		return
	}
	httpx.OK(w, h.populate(ctx, []models.Ticket{*out})[0])
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=ouvert en_cours resolu ferme" label:"Status"`
}

// SetStatus handles PUT /api/tickets/{id}/status {status}.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in statusInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "ticket status")
	defer cancel()

	if h.loadEditable(ctx, w, r, id) == nil {
		return
	}
	out, err := h.Store.SetStatus(ctx, id, in.Status)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Ticket not found")
		return
	}
	httpx.OK(w, h.populate(ctx, []models.Ticket{*out})[0])
}

type assignInput struct {
	AssignedTo string `json:"assignedTo" validate:"omitempty,objectid" label:"Assignee"`
}

// Assign handles PUT /api/tickets/{id}/assign {assignedTo}. An empty value
// clears the assignee. A new ticket assigned to someone moves to en_cours.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in assignInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	to, _ := httpx.ParseObjectID(in.AssignedTo)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "ticket assign")
	defer cancel()

	if to != nil {
		refs, err := h.Users.Refs(ctx, []primitive.ObjectID{*to})
		if err != nil {
			httpx.ServerError(w, r, h.Log, "check user failed", err)
			return
		}
		if _, found := refs[*to]; !found {
			httpx.NotFound(w, "User not found")
			return
		}
	}
	out, err := h.Store.Assign(ctx, id, to)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Ticket not found")
		return
	}
	if to != nil && out.Status == models.TicketOuvert {
		if out, err = h.Store.SetStatus(ctx, id, models.TicketEnCours); err != nil {
			httpx.StoreError(w, r, h.Log, err, "Ticket not found")
			return
		}
	}
	httpx.OK(w, h.populate(ctx, []models.Ticket{*out})[0])
}

type commentInput struct {
	Content string `json:"content" validate:"required,notblank,max=5000" label:"Comment"`
}

// Comment handles POST /api/tickets/{id}/comments {content}.
func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in commentInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "ticket comment")
	defer cancel()

	c, err := h.Store.AddComment(ctx, id, authz.UserID(r), in.Content)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Ticket not found")
		return
	}
	httpx.Created(w, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "ticket delete")
	defer cancel()

	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "delete ticket failed", err)
		return
	}
	if n == 0 {
		httpx.NotFound(w, "Ticket not found")
		return
	}
	httpx.Message(w, "Ticket deleted")
}
