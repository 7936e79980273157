package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/shelterhub/internal/app/system/auth"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// A missing user or a malformed ID yields ok=false, so ok=true always means
// an authenticated user with a usable ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// UserID returns the current user's ObjectID, or NilObjectID.
func UserID(r *http.Request) primitive.ObjectID {
	_, _, id, _ := UserCtx(r)
	return id
}

// UserIDPtr is UserID for optional reference fields.
func UserIDPtr(r *http.Request) *primitive.ObjectID {
	id := UserID(r)
	if id.IsZero() {
		return nil
	}
	return &id
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	return HasRole(r, models.RoleAdmin)
}

// IsManagement reports whether the user is an admin or a manager.
func IsManagement(r *http.Request) bool {
	return HasAnyRole(r, Management...)
}

// CanWritePharmacy reports whether the user may change medication stock.
func CanWritePharmacy(r *http.Request) bool {
	return HasAnyRole(r, PharmacyWriters...)
}

// IsSelf reports whether id is the current user.
func IsSelf(r *http.Request, id primitive.ObjectID) bool {
	uid := UserID(r)
	return !uid.IsZero() && uid == id
}
