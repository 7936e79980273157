// internal/domain/models/approval.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Approval types.
var ApprovalTypes = []string{"sortie_exceptionnelle", "achat", "transfert", "hebergement", "autre"}

// Approval status values.
const (
	ApprovalPending   = "pending"
	ApprovalApproved  = "approved"
	ApprovalRejected  = "rejected"
	ApprovalCancelled = "cancelled"
)

// ApprovalRequest is a request that needs a manager's decision.
type ApprovalRequest struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type          string              `bson:"type" json:"type"`
	Title         string              `bson:"title" json:"title"`
	Description   string              `bson:"description,omitempty" json:"description,omitempty"`
	Beneficiaire  *primitive.ObjectID `bson:"beneficiaire,omitempty" json:"beneficiaire,omitempty"`
	Montant       *float64            `bson:"montant,omitempty" json:"montant,omitempty"`
	RequestedBy   primitive.ObjectID  `bson:"requestedBy" json:"requestedBy"`
	Status        string              `bson:"status" json:"status"`
	ReviewedBy    *primitive.ObjectID `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time          `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	ReviewComment string              `bson:"reviewComment,omitempty" json:"reviewComment,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}
