// internal/domain/models/exitlog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExitLog status values.
const (
	ExitOut      = "out"
	ExitReturned = "returned"
	ExitLate     = "late"
	ExitAbsent   = "absent"
)

// ExitLog tracks a beneficiary leaving the shelter and coming back.
type ExitLog struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Beneficiaire       primitive.ObjectID  `bson:"beneficiaire" json:"beneficiaire"`
	ExitTime           time.Time           `bson:"exitTime" json:"exitTime"`
	ExpectedReturnTime time.Time           `bson:"expectedReturnTime" json:"expectedReturnTime"`
	ActualReturnTime   *time.Time          `bson:"actualReturnTime,omitempty" json:"actualReturnTime,omitempty"`
	Motif              string              `bson:"motif,omitempty" json:"motif,omitempty"`
	Destination        string              `bson:"destination,omitempty" json:"destination,omitempty"`
	Accompagnant       string              `bson:"accompagnant,omitempty" json:"accompagnant,omitempty"`
	Status             string              `bson:"status" json:"status"`
	RecordedBy         *primitive.ObjectID `bson:"recordedBy,omitempty" json:"recordedBy,omitempty"`
	ReturnRecordedBy   *primitive.ObjectID `bson:"returnRecordedBy,omitempty" json:"returnRecordedBy,omitempty"`
	Notes              string              `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Visit is an entry in the visitor log.
type Visit struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	VisitorName   string              `bson:"visitorName" json:"visitorName"`
	VisitorCIN    string              `bson:"visitorCin,omitempty" json:"visitorCin,omitempty"`
	Relation      string              `bson:"relation,omitempty" json:"relation,omitempty"`
	Beneficiaire  *primitive.ObjectID `bson:"beneficiaire,omitempty" json:"beneficiaire,omitempty"`
	ArrivalTime   time.Time           `bson:"arrivalTime" json:"arrivalTime"`
	DepartureTime *time.Time          `bson:"departureTime,omitempty" json:"departureTime,omitempty"`
	Motif         string              `bson:"motif,omitempty" json:"motif,omitempty"`
	RecordedBy    *primitive.ObjectID `bson:"recordedBy,omitempty" json:"recordedBy,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}
