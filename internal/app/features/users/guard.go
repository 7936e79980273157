// internal/app/features/users/guard.go
package users

import (
	"context"

	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// wouldRemoveLastAdmin reports whether taking id out of the active admin set
// (demotion, disable or delete) would leave no active admin. removing is
// false when the change keeps the user an active admin.
func (h *Handler) wouldRemoveLastAdmin(ctx context.Context, id primitive.ObjectID, removing bool) (bool, error) {
	if !removing {
		return false, nil
	}
	u, err := h.Store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if u.Role != models.RoleAdmin || u.Status != models.UserActive {
		return false, nil
	}
	n, err := h.Store.CountActiveAdmins(ctx)
	if err != nil {
		return false, err
	}
	return n <= 1, nil
}
