// internal/domain/models/schedule.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shifts.
var Shifts = []string{"matin", "apres_midi", "nuit", "journee"}

// Schedule assigns a staff member to a shift on a day.
type Schedule struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID  `bson:"user" json:"user"`
	Date      time.Time           `bson:"date" json:"date"` // midnight UTC
	Shift     string              `bson:"shift" json:"shift"`
	StartTime string              `bson:"startTime" json:"startTime"` // HH:MM
	EndTime   string              `bson:"endTime" json:"endTime"`
	Poste     string              `bson:"poste,omitempty" json:"poste,omitempty"`
	Notes     string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}
