// internal/app/features/announcements/announcements.go
package announcements

import (
	"net/http"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
)

type announcementInput struct {
	Title    string      `json:"title" validate:"required,notblank,max=200" label:"Title"`
	Content  string      `json:"content" validate:"required,notblank,max=20000" label:"Content"`
	Priority string      `json:"priority" validate:"omitempty,oneof=info important urgent" label:"Priority"`
	Audience []string    `json:"audience" validate:"omitempty,dive,oneof=admin manager social_worker medical staff" label:"Audience"`
	Active   *bool       `json:"active"`
	StartsAt *dates.Time `json:"startsAt"`
	EndsAt   *dates.Time `json:"endsAt"`
}

// model converts the input, sanitizing content. The second result is false
// when the display window is inverted.
func (in announcementInput) model() (models.Announcement, bool) {
	a := models.Announcement{
		Title:    in.Title,
		Content:  htmlsanitize.PrepareContent(in.Content),
		Priority: in.Priority,
		Audience: in.Audience,
		Active:   in.Active == nil || *in.Active,
		StartsAt: in.StartsAt.Ptr(),
		EndsAt:   in.EndsAt.Ptr(),
	}
	if a.Priority == "" {
		a.Priority = models.PriorityInfo
	}
	if a.StartsAt != nil && a.EndsAt != nil && !a.EndsAt.After(*a.StartsAt) {
		return a, false
	}
	return a, true
}

// Active handles GET /api/announcements/active: what the current user's role
// should see right now.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	role, _ := authz.Role(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "announcements active")
	defer cancel()

	rows, err := h.Store.ActiveFor(ctx, role, time.Now().UTC())
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list active announcements failed", err)
		return
	}
	if rows == nil {
		rows = []models.Announcement{}
	}
	httpx.OK(w, rows)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "announcements list")
	defer cancel()

	rows, total, err := h.Store.List(ctx, p)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list announcements failed", err)
		return
	}
	httpx.List(w, rows, paging.New(p, total))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "announcement get")
	defer cancel()

	a, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Announcement not found")
		return
	}
	httpx.OK(w, a)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in announcementInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	a, ok := in.model()
	if !ok {
		httpx.BadRequest(w, "endsAt must be after startsAt")
		return
	}
	a.Author = authz.UserIDPtr(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "announcement create")
	defer cancel()

	out, err := h.Store.Create(ctx, a)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "create announcement failed", err)
		return
	}
	httpx.Created(w, out)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in announcementInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	a, ok := in.model()
	if !ok {
		httpx.BadRequest(w, "endsAt must be after startsAt")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "announcement update")
	defer cancel()

	if err := h.Store.Update(ctx, id, a); err != nil {
		httpx.StoreError(w, r, h.Log, err, "Announcement not found")
		return
	}
	out, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Announcement not found")
		return
	}
	httpx.OK(w, out)
}

// Toggle handles PATCH /api/announcements/{id}/toggle.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "announcement toggle")
	defer cancel()

	active, err := h.Store.Toggle(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Announcement not found")
		return
	}
	httpx.OK(w, map[string]bool{"active": active})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "announcement delete")
	defer cancel()

	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "delete announcement failed", err)
		return
	}
	if n == 0 {
		httpx.NotFound(w, "Announcement not found")
		return
	}
	httpx.Message(w, "Announcement deleted")
}
