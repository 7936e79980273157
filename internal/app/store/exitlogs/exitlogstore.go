// internal/app/store/exitlogs/exitlogstore.go
package exitlogstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrAlreadyOut is returned when the beneficiary already has an open exit.
	ErrAlreadyOut = errors.New("beneficiary is already out")
	// ErrBadReturnWindow is returned when the expected return is not after the exit.
	ErrBadReturnWindow = errors.New("expected return time must be after exit time")
	// ErrNotOut is returned for a state change that needs the exit to be open.
	ErrNotOut = errors.New("exit is not open")
)

type Store struct {
	c      *mongo.Collection
	visits *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("exit_logs"), visits: db.Collection("visits")}
}

// Create opens an exit. A beneficiary can only have one exit in status out;
// the partial unique index on open exits settles concurrent creates.
func (s *Store) Create(ctx context.Context, e models.ExitLog) (models.ExitLog, error) {
	now := time.Now().UTC()
	if e.ExitTime.IsZero() {
		e.ExitTime = now
	}
	if !e.ExpectedReturnTime.After(e.ExitTime) {
		return models.ExitLog{}, ErrBadReturnWindow
	}
	open, err := s.c.CountDocuments(ctx,
		bson.M{"beneficiaire": e.Beneficiaire, "status": models.ExitOut},
		options.Count().SetLimit(1))
	if err != nil {
		return models.ExitLog{}, err
	}
	if open > 0 {
		return models.ExitLog{}, ErrAlreadyOut
	}

	e.ID = primitive.NewObjectID()
	e.Status = models.ExitOut
	e.ActualReturnTime = nil
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ExitLog{}, ErrAlreadyOut
		}
		return models.ExitLog{}, err
	}
	return e, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ExitLog, error) {
	var e models.ExitLog
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ReturnStatus decides the status of a return: late when the beneficiary
// came back after the expected time.
func ReturnStatus(expected, actual time.Time) string {
	if actual.After(expected) {
		return models.ExitLate
	}
	return models.ExitReturned
}

// RecordReturn closes an exit that is out or absent. at defaults to now.
// The late/returned decision is made here and never revisited.
func (s *Store) RecordReturn(ctx context.Context, id primitive.ObjectID, at *time.Time, by *primitive.ObjectID, notes string) (*models.ExitLog, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != models.ExitOut && e.Status != models.ExitAbsent {
		return nil, ErrNotOut
	}
	actual := time.Now().UTC()
	if at != nil {
		actual = at.UTC()
	}
	set := bson.M{
		"actualReturnTime": actual,
		"status":           ReturnStatus(e.ExpectedReturnTime, actual),
		"returnRecordedBy": by,
		"updatedAt":        time.Now().UTC(),
	}
	if notes != "" {
		set["notes"] = notes
	}
	var out models.ExitLog
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": e.Status},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotOut
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkAbsent flags an open exit as absent.
func (s *Store) MarkAbsent(ctx context.Context, id primitive.ObjectID) (*models.ExitLog, error) {
	var out models.ExitLog
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.ExitOut},
		bson.M{"$set": bson.M{"status": models.ExitAbsent, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return nil, gerr
		}
		return nil, ErrNotOut
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Status       string
	Beneficiaire *primitive.ObjectID
	Range        dates.Range // on exitTime
}

// List returns one page of exits, most recent first, and the total.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) ([]models.ExitLog, int64, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Beneficiaire != nil {
		q["beneficiaire"] = *f.Beneficiaire
	}
	f.Range.Apply(q, "exitTime")

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, q, p.FindOptions(bson.D{{Key: "exitTime", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.ExitLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CurrentlyOut lists open and absent exits, earliest expected return first.
func (s *Store) CurrentlyOut(ctx context.Context) ([]models.ExitLog, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"status": bson.M{"$in": bson.A{models.ExitOut, models.ExitAbsent}}},
		options.Find().SetSort(bson.D{{Key: "expectedReturnTime", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.ExitLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an exit record.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByStatus counts exits per status whose exitTime falls in rng.
func (s *Store) CountByStatus(ctx context.Context, rng dates.Range) (map[string]int64, error) {
	match := bson.M{}
	rng.Apply(match, "exitTime")
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]int64{
		models.ExitOut: 0, models.ExitReturned: 0, models.ExitLate: 0, models.ExitAbsent: 0,
	}
	for cur.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Count
	}
	return out, cur.Err()
}

// CountLateReturns counts late returns whose actual return falls in rng.
func (s *Store) CountLateReturns(ctx context.Context, rng dates.Range) (int64, error) {
	q := bson.M{"status": models.ExitLate}
	rng.Apply(q, "actualReturnTime")
	return s.c.CountDocuments(ctx, q)
}
