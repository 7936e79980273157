// internal/app/store/approvals/approvalstore.go
package approvalstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotPending is returned when deciding or cancelling a request that
	// has already left the pending state.
	ErrNotPending = errors.New("request is no longer pending")
	// ErrNotRequester is returned when someone other than the requester cancels.
	ErrNotRequester = errors.New("only the requester can cancel")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("approval_requests")}
}

func (s *Store) Create(ctx context.Context, a models.ApprovalRequest) (models.ApprovalRequest, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Title = strings.TrimSpace(a.Title)
	a.Status = models.ApprovalPending
	a.ReviewedBy = nil
	a.ReviewedAt = nil
	a.ReviewComment = ""
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.ApprovalRequest{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ApprovalRequest, error) {
	var a models.ApprovalRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListFilter narrows List. RequestedBy restricts to one requester.
type ListFilter struct {
	RequestedBy *primitive.ObjectID
	Status      string
	Type        string
}

func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) ([]models.ApprovalRequest, int64, error) {
	q := bson.M{}
	if f.RequestedBy != nil {
		q["requestedBy"] = *f.RequestedBy
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, q, p.FindOptions(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.ApprovalRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// transition moves a pending request to status. Only pending requests match.
func (s *Store) transition(ctx context.Context, filter bson.M, set bson.M) (*models.ApprovalRequest, error) {
	filter["status"] = models.ApprovalPending
	set["updatedAt"] = time.Now().UTC()
	var out models.ApprovalRequest
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetByID(ctx, filter["_id"].(primitive.ObjectID)); gerr != nil {
			return nil, gerr
		}
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Decide approves or rejects a pending request.
func (s *Store) Decide(ctx context.Context, id primitive.ObjectID, approve bool, reviewer primitive.ObjectID, comment string) (*models.ApprovalRequest, error) {
	status := models.ApprovalRejected
	if approve {
		status = models.ApprovalApproved
	}
	now := time.Now().UTC()
	return s.transition(ctx, bson.M{"_id": id}, bson.M{
		"status":        status,
		"reviewedBy":    reviewer,
		"reviewedAt":    now,
		"reviewComment": strings.TrimSpace(comment),
	})
}

// Cancel withdraws a pending request on behalf of its requester.
func (s *Store) Cancel(ctx context.Context, id, requester primitive.ObjectID) (*models.ApprovalRequest, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.RequestedBy != requester {
		return nil, ErrNotRequester
	}
	return s.transition(ctx, bson.M{"_id": id}, bson.M{"status": models.ApprovalCancelled})
}

// CountPending counts requests awaiting a decision.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.ApprovalPending})
}
