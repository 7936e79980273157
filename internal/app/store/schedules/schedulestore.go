// internal/app/store/schedules/schedulestore.go
package schedulestore

import (
	"context"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("schedules")}
}

// Create inserts a shift. Date is truncated to its UTC day.
func (s *Store) Create(ctx context.Context, sc models.Schedule) (models.Schedule, error) {
	now := time.Now().UTC()
	sc.ID = primitive.NewObjectID()
	sc.Date = dates.Day(sc.Date)
	sc.CreatedAt = now
	sc.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sc); err != nil {
		return models.Schedule{}, err
	}
	return sc, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Schedule, error) {
	var sc models.Schedule
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Update replaces every editable field of a shift.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, sc models.Schedule) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"user":      sc.User,
		"date":      dates.Day(sc.Date),
		"shift":     sc.Shift,
		"startTime": sc.StartTime,
		"endTime":   sc.EndTime,
		"poste":     sc.Poste,
		"notes":     sc.Notes,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListFilter narrows List.
type ListFilter struct {
	User  *primitive.ObjectID
	Shift string
	Range dates.Range
}

// List returns shifts in date order, then by start time.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Schedule, error) {
	q := bson.M{}
	if f.User != nil {
		q["user"] = *f.User
	}
	if f.Shift != "" {
		q["shift"] = f.Shift
	}
	f.Range.Apply(q, "date")
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{
		{Key: "date", Value: 1}, {Key: "startTime", Value: 1}, {Key: "_id", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Schedule
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
