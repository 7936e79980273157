// internal/app/features/login/login.go
package login

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	userstore "github.com/dalemusser/shelterhub/internal/app/store/users"
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/normalize"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type loginInput struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

const badCredentials = "Invalid email or password"

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	email := normalize.Email(in.Email)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, nil, email, "rate limited")
			httpx.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, nil, email, "user not found")
		httpx.Unauthorized(w, badCredentials)
		return
	}
	if err != nil {
		httpx.ServerError(w, r, h.Log, "login lookup failed", err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, &u.ID, email, "wrong password")
		httpx.Unauthorized(w, badCredentials)
		return
	}
	if normalize.Status(u.Status) == models.UserDisabled {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, &u.ID, email, "account disabled")
		httpx.Unauthorized(w, "Account disabled")
		return
	}

	token, exp, err := h.Tokens.IssueToken(*userstore.SessionUser(u))
	if err != nil {
		httpx.ServerError(w, r, h.Log, "issue token failed", err)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	now := time.Now().UTC()
	if err := h.Users.TouchLogin(ctx, u.ID, now); err != nil {
		h.Log.Warn("record last login failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}
	u.LastLoginAt = &now
	h.AuditLog.LoginSuccess(ctx, r, u.ID, email)

	httpx.OK(w, loginResponse{Token: token, ExpiresAt: exp, User: u})
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "current user")
	defer cancel()

	u, err := h.Users.GetByID(ctx, authz.UserID(r))
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	}
	httpx.OK(w, u)
}

type passwordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required" label:"Current password"`
	NewPassword     string `json:"newPassword" validate:"required,min=8" label:"New password"`
}

// ChangePassword handles PUT /api/auth/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in passwordInput
	if !httpx.Bind(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "change password")
	defer cancel()

	uid := authz.UserID(r)
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	}
	if !auth.CheckPassword(u.PasswordHash, in.CurrentPassword) {
		httpx.BadRequest(w, "Current password is incorrect")
		return
	}
	if in.NewPassword == in.CurrentPassword {
		httpx.BadRequest(w, "New password must differ from the current one")
		return
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "hash password failed", err)
		return
	}
	if err := h.Users.SetPassword(ctx, uid, hash); err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	}
	h.AuditLog.PasswordChanged(ctx, r, uid)
	httpx.Message(w, "Password updated")
}
