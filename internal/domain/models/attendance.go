// internal/domain/models/attendance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attendance statut values.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceExcuse  = "excuse"
)

// Meals records which meals were taken that day.
type Meals struct {
	PetitDejeuner bool `bson:"petitDejeuner" json:"petitDejeuner"`
	Dejeuner      bool `bson:"dejeuner" json:"dejeuner"`
	Diner         bool `bson:"diner" json:"diner"`
}

// Attendance is one beneficiary's presence for one day.
// Date is always midnight UTC; (Beneficiaire, Date) is unique.
type Attendance struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Beneficiaire primitive.ObjectID  `bson:"beneficiaire" json:"beneficiaire"`
	Date         time.Time           `bson:"date" json:"date"`
	Statut       string              `bson:"statut" json:"statut"`
	Repas        Meals               `bson:"repas" json:"repas"`
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`
	RecordedBy   *primitive.ObjectID `bson:"recordedBy,omitempty" json:"recordedBy,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
