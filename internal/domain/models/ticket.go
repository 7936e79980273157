// internal/domain/models/ticket.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ticket enums.
var (
	TicketCategories = []string{"maintenance", "informatique", "logistique", "autre"}
	TicketPriorities = []string{"basse", "moyenne", "haute", "urgente"}
)

// Ticket status values.
const (
	TicketOuvert  = "ouvert"
	TicketEnCours = "en_cours"
	TicketResolu  = "resolu"
	TicketFerme   = "ferme"
)

// TicketStatuses lists every ticket status.
var TicketStatuses = []string{TicketOuvert, TicketEnCours, TicketResolu, TicketFerme}

// Ticket is an internal support/maintenance request.
type Ticket struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Category    string              `bson:"category" json:"category"`
	Priority    string              `bson:"priority" json:"priority"`
	Status      string              `bson:"status" json:"status"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	AssignedTo  *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Comments    []TicketComment     `bson:"comments" json:"comments"`
	ResolvedAt  *time.Time          `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// TicketComment is one comment on a ticket.
type TicketComment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
