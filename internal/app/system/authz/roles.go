package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/shelterhub/internal/domain/models"
)

// Role groups used by route guards.
var (
	Management      = []string{models.RoleAdmin, models.RoleManager}
	PharmacyWriters = []string{models.RoleAdmin, models.RoleManager, models.RoleMedical}
	CaseWriters     = []string{models.RoleAdmin, models.RoleManager, models.RoleSocialWorker}
)

// HasAnyRole reports whether the current request's user has any of the given roles.
// Returns false if no user is present.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// HasRole is a convenience wrapper for a single role.
func HasRole(r *http.Request, role string) bool {
	return HasAnyRole(r, role)
}

// Role returns the current user's role (lowercased) and whether a user is present.
func Role(r *http.Request) (string, bool) {
	role, _, _, ok := UserCtx(r)
	return role, ok
}
