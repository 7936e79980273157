package exitlogstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrAlreadyLeft is returned when checking out a visit twice.
var ErrAlreadyLeft = errors.New("visitor already checked out")

// CreateVisit records a visitor's arrival.
func (s *Store) CreateVisit(ctx context.Context, v models.Visit) (models.Visit, error) {
	now := time.Now().UTC()
	v.ID = primitive.NewObjectID()
	v.VisitorName = strings.TrimSpace(v.VisitorName)
	v.VisitorCIN = strings.ToUpper(strings.TrimSpace(v.VisitorCIN))
	if v.ArrivalTime.IsZero() {
		v.ArrivalTime = now
	}
	v.DepartureTime = nil
	v.CreatedAt = now
	if _, err := s.visits.InsertOne(ctx, v); err != nil {
		return models.Visit{}, err
	}
	return v, nil
}

// VisitFilter narrows ListVisits.
type VisitFilter struct {
	Beneficiaire *primitive.ObjectID
	OnSite       bool // only visitors who have not left
	Range        dates.Range
}

// ListVisits returns one page of visits, latest arrival first, and the total.
func (s *Store) ListVisits(ctx context.Context, f VisitFilter, p paging.Params) ([]models.Visit, int64, error) {
	q := bson.M{}
	if f.Beneficiaire != nil {
		q["beneficiaire"] = *f.Beneficiaire
	}
	if f.OnSite {
		q["departureTime"] = nil
	}
	f.Range.Apply(q, "arrivalTime")

	total, err := s.visits.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.visits.Find(ctx, q, p.FindOptions(bson.D{{Key: "arrivalTime", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.Visit
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CheckoutVisit records the visitor's departure.
func (s *Store) CheckoutVisit(ctx context.Context, id primitive.ObjectID, at *time.Time) (*models.Visit, error) {
	dep := time.Now().UTC()
	if at != nil {
		dep = at.UTC()
	}
	var out models.Visit
	err := s.visits.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "departureTime": nil},
		bson.M{"$set": bson.M{"departureTime": dep}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := s.visits.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, cerr
		}
		if n > 0 {
			return nil, ErrAlreadyLeft
		}
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
