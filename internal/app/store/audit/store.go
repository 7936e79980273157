// Package audit persists security and administrative events.
package audit

import (
	"context"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedUserDisabled  = "login_failed_user_disabled"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventPasswordChanged          = "password_changed"
)

// Admin event types
const (
	EventUserCreated        = "user_created"
	EventUserUpdated        = "user_updated"
	EventUserDisabled       = "user_disabled"
	EventUserEnabled        = "user_enabled"
	EventUserDeleted        = "user_deleted"
	EventBeneficiaryCreated = "beneficiary_created"
	EventBeneficiaryUpdated = "beneficiary_updated"
	EventBeneficiaryDeleted = "beneficiary_deleted"
	EventBeneficiaryImport  = "beneficiary_import"
	EventStockCreated       = "stock_created"
	EventStockAdjusted      = "stock_adjusted"
	EventStockDeleted       = "stock_deleted"
	EventMedicationCreated  = "medication_created"
	EventMedicationDeleted  = "medication_deleted"
	EventApprovalApproved   = "approval_approved"
	EventApprovalRejected   = "approval_rejected"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"eventType" json:"eventType"`

	// UserID is the affected user; ActorID is who performed the action.
	UserID  *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	ActorID *primitive.ObjectID `bson:"actorId,omitempty" json:"actorId,omitempty"`

	// TargetID is the affected record for non-user admin events.
	TargetID *primitive.ObjectID `bson:"targetId,omitempty" json:"targetId,omitempty"`

	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"userAgent,omitempty" json:"userAgent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failureReason,omitempty" json:"failureReason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows Query and CountByFilter.
type QueryFilter struct {
	UserID    *primitive.ObjectID
	ActorID   *primitive.ObjectID
	Category  string
	EventType string
	Range     dates.Range
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.UserID != nil {
		q["userId"] = *f.UserID
	}
	if f.ActorID != nil {
		q["actorId"] = *f.ActorID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["eventType"] = f.EventType
	}
	f.Range.Apply(q, "timestamp")
	return q
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event, filling ID and Timestamp when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns one page of matching events, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter, p paging.Params) ([]Event, error) {
	opts := p.FindOptions(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}

// RecentFailedLogins counts failed logins for a user since the given time.
func (s *Store) RecentFailedLogins(ctx context.Context, userID primitive.ObjectID, since time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"category":  CategoryAuth,
		"success":   false,
		"userId":    userID,
		"timestamp": bson.M{"$gte": since},
	})
}
