// internal/app/features/users/users.go
package users

import (
	"errors"
	"net/http"

	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	userstore "github.com/dalemusser/shelterhub/internal/app/store/users"
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/normalize"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// List handles GET /api/users?search=&role=&status=&page=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user list")
	defer cancel()

	p := paging.Parse(r)
	rows, total, err := h.Store.List(ctx, userstore.ListFilter{
		Search: query.Search(r, "search"),
		Role:   normalize.Role(query.Get(r, "role")),
		Status: normalize.Status(query.Get(r, "status")),
	}, p)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list users failed", err)
		return
	}
	httpx.List(w, rows, paging.New(p, total))
}

// Get handles GET /api/users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user get")
	defer cancel()

	u, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	}
	httpx.OK(w, u)
}

type createInput struct {
	Nom       string `json:"nom" validate:"notblank,max=100" label:"Nom"`
	Prenom    string `json:"prenom" validate:"notblank,max=100" label:"Prénom"`
	Email     string `json:"email" validate:"required,email" label:"Email"`
	Password  string `json:"password" validate:"required,min=8" label:"Password"`
	Role      string `json:"role" validate:"required,oneof=admin manager social_worker medical staff" label:"Role"`
	Status    string `json:"status" validate:"omitempty,oneof=active disabled" label:"Status"`
	Telephone string `json:"telephone" validate:"max=30"`
	Poste     string `json:"poste" validate:"max=100"`
}

// Create handles POST /api/users.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "hash password failed", err)
		return
	}
	status := in.Status
	if status == "" {
		status = models.UserActive
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user create")
	defer cancel()

	u, err := h.Store.Create(ctx, models.User{
		Nom:          in.Nom,
		Prenom:       in.Prenom,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       status,
		Telephone:    in.Telephone,
		Poste:        in.Poste,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		httpx.Conflict(w, "A user with this email already exists")
		return
	}
	if err != nil {
		httpx.ServerError(w, r, h.Log, "create user failed", err)
		return
	}
	h.AuditLog.UserEvent(ctx, r, audit.EventUserCreated, authz.UserID(r), u.ID, map[string]string{"role": u.Role})
	httpx.Created(w, u)
}

type updateInput struct {
	Nom       string `json:"nom" validate:"notblank,max=100" label:"Nom"`
	Prenom    string `json:"prenom" validate:"notblank,max=100" label:"Prénom"`
	Email     string `json:"email" validate:"required,email" label:"Email"`
	Role      string `json:"role" validate:"required,oneof=admin manager social_worker medical staff" label:"Role"`
	Telephone string `json:"telephone" validate:"max=30"`
	Poste     string `json:"poste" validate:"max=100"`
}

// Update handles PUT /api/users/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in updateInput
	if !httpx.Bind(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user update")
	defer cancel()

	if authz.IsSelf(r, id) && in.Role != models.RoleAdmin {
		httpx.BadRequest(w, "You cannot remove your own admin role")
		return
	}
	if blocked, err := h.wouldRemoveLastAdmin(ctx, id, in.Role != models.RoleAdmin); err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	} else if blocked {
		httpx.Conflict(w, "At least one active admin is required")
		return
	}

	err := h.Store.Update(ctx, id, userstore.Update{
		Nom: in.Nom, Prenom: in.Prenom, Email: in.Email, Role: in.Role,
		Telephone: in.Telephone, Poste: in.Poste,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		httpx.Conflict(w, "A user with this email already exists")
		return
	}
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	}
	h.AuditLog.UserEvent(ctx, r, audit.EventUserUpdated, authz.UserID(r), id, map[string]string{"role": in.Role})

	u, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	}
	httpx.OK(w, u)
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=active disabled" label:"Status"`
}

// SetStatus handles PATCH /api/users/{id}/status (enable / disable).
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in statusInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	disable := in.Status == models.UserDisabled
	if disable && authz.IsSelf(r, id) {
		httpx.BadRequest(w, "You cannot disable your own account")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user status")
	defer cancel()

	if blocked, err := h.wouldRemoveLastAdmin(ctx, id, disable); err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	} else if blocked {
		httpx.Conflict(w, "At least one active admin is required")
		return
	}
	if err := h.Store.SetStatus(ctx, id, in.Status); err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	}

	event := audit.EventUserEnabled
	if disable {
		event = audit.EventUserDisabled
	}
	h.AuditLog.UserEvent(ctx, r, event, authz.UserID(r), id, nil)
	httpx.Message(w, "Status updated")
}

type resetInput struct {
	Password string `json:"password" validate:"required,min=8" label:"Password"`
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in resetInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "hash password failed", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user password reset")
	defer cancel()

	if err := h.Store.SetPassword(ctx, id, hash); err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	}
	h.AuditLog.UserEvent(ctx, r, audit.EventPasswordChanged, authz.UserID(r), id, nil)
	httpx.Message(w, "Password updated")
}

// Delete handles DELETE /api/users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	if authz.IsSelf(r, id) {
		httpx.BadRequest(w, "You cannot delete your own account")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user delete")
	defer cancel()

	if blocked, err := h.wouldRemoveLastAdmin(ctx, id, true); err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	} else if blocked {
		httpx.Conflict(w, "At least one active admin is required")
		return
	}

	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "delete user failed", err)
		return
	}
	if n == 0 {
		httpx.NotFound(w, "User not found")
		return
	}
	h.AuditLog.UserEvent(ctx, r, audit.EventUserDeleted, authz.UserID(r), id, nil)
	httpx.Message(w, "User deleted")
}
