// internal/app/features/profile/profile.go
package profile

import (
	"net/http"

	userstore "github.com/dalemusser/shelterhub/internal/app/store/users"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
)

// Get handles GET /api/profile.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile get")
	defer cancel()

	u, err := h.Users.GetByID(ctx, authz.UserID(r))
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	}
	httpx.OK(w, u)
}

type profileInput struct {
	Nom       string `json:"nom" validate:"notblank,max=100" label:"Last name"`
	Prenom    string `json:"prenom" validate:"max=100" label:"First name"`
	Telephone string `json:"telephone" validate:"max=30" label:"Phone"`
	Poste     string `json:"poste" validate:"max=100" label:"Position"`
}

// Update handles PUT /api/profile. Role and email are changed by an admin
// through /api/users.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in profileInput
	if !httpx.Bind(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile update")
	defer cancel()

	uid := authz.UserID(r)
	err := h.Users.UpdateProfile(ctx, uid, userstore.ProfileUpdate{
		Nom:       in.Nom,
		Prenom:    in.Prenom,
		Telephone: in.Telephone,
		Poste:     in.Poste,
	})
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "User not found")
		return
	}
	httpx.OK(w, u)
}
