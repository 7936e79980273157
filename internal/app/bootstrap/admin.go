// internal/app/bootstrap/admin.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/shelterhub/internal/app/store/users"
	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// minAdminPasswordLen matches the password rule applied to every account.
const minAdminPasswordLen = 8

// ensureAdmin makes sure email belongs to an active admin. An existing
// account is promoted and re-enabled without touching its password; a
// missing one is created with password.
func ensureAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role != models.RoleAdmin {
			err := users.Update(ctx, u.ID, userstore.Update{
				Nom:       u.Nom,
				Prenom:    u.Prenom,
				Email:     u.Email,
				Role:      models.RoleAdmin,
				Telephone: u.Telephone,
				Poste:     u.Poste,
			})
			if err != nil {
				return fmt.Errorf("promote %s: %w", email, err)
			}
			logger.Info("promoted bootstrap admin", zap.String("email", u.Email), zap.String("previous_role", u.Role))
		}
		if u.Status != models.UserActive {
			if err := users.SetStatus(ctx, u.ID, models.UserActive); err != nil {
				return fmt.Errorf("enable %s: %w", email, err)
			}
			logger.Info("re-enabled bootstrap admin", zap.String("email", u.Email))
		}
		return nil

	case errors.Is(err, mongo.ErrNoDocuments):
		if len(password) < minAdminPasswordLen {
			return fmt.Errorf("admin_password must be at least %d characters to create %s", minAdminPasswordLen, email)
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		created, err := users.Create(ctx, models.User{
			Nom:          "Administrateur",
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			Status:       models.UserActive,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", email, err)
		}
		logger.Info("created bootstrap admin", zap.String("email", created.Email))
		return nil

	default:
		return err
	}
}
