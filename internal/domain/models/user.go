// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Staff roles.
const (
	RoleAdmin        = "admin"
	RoleManager      = "manager"
	RoleSocialWorker = "social_worker"
	RoleMedical      = "medical"
	RoleStaff        = "staff"
)

// User status values.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// AllRoles lists every staff role in display order.
var AllRoles = []string{RoleAdmin, RoleManager, RoleSocialWorker, RoleMedical, RoleStaff}

// User is a staff account. There are no beneficiary logins.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Nom          string             `bson:"nom" json:"nom"`
	Prenom       string             `bson:"prenom" json:"prenom"`
	FullNameCI   string             `bson:"fullNameCI" json:"-"` // folded "prenom nom" for search
	Email        string             `bson:"email" json:"email"`  // stored lowercased
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Status       string             `bson:"status" json:"status"` // active | disabled
	Telephone    string             `bson:"telephone,omitempty" json:"telephone,omitempty"`
	Poste        string             `bson:"poste,omitempty" json:"poste,omitempty"`
	LastLoginAt  *time.Time         `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FullName returns "Prenom Nom".
func (u User) FullName() string {
	switch {
	case u.Prenom == "":
		return u.Nom
	case u.Nom == "":
		return u.Prenom
	}
	return u.Prenom + " " + u.Nom
}

// UserRef is the populated form of a user reference.
type UserRef struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Nom    string             `bson:"nom" json:"nom"`
	Prenom string             `bson:"prenom" json:"prenom"`
	Role   string             `bson:"role,omitempty" json:"role,omitempty"`
}
