// internal/app/store/attendance/attendancestore.go
package attendancestore

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
	return &Store{c: db.Collection("attendance")}
}

func upsertModel(a models.Attendance, now time.Time) *mongo.UpdateOneModel {
	return mongo.NewUpdateOneModel().
		SetFilter(bson.M{"beneficiaire": a.Beneficiaire, "date": a.Date}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"statut":     a.Statut,
				"repas":      a.Repas,
				"notes":      a.Notes,
				"recordedBy": a.RecordedBy,
				"updatedAt":  now,
			},
			"$setOnInsert": bson.M{"createdAt": now},
		}).
		SetUpsert(true)
}

// Upsert records one beneficiary's attendance for a.Date, which is truncated
// to its UTC day. An existing record for that day is overwritten.
func (s *Store) Upsert(ctx context.Context, a models.Attendance) (*models.Attendance, error) {
	now := time.Now().UTC()
	a.Date = dates.Day(a.Date)
	m := upsertModel(a, now)

	var out models.Attendance
	err := s.c.FindOneAndUpdate(ctx, m.Filter, m.Update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkMark upserts many records for the same day in one round trip.
// Returns how many were inserted and how many updated.
func (s *Store) BulkMark(ctx context.Context, day time.Time, rows []models.Attendance) (inserted, updated int64, err error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}
	now := time.Now().UTC()
	day = dates.Day(day)
	writes := make([]mongo.WriteModel, 0, len(rows))
	for _, a := range rows {
		a.Date = day
		writes = append(writes, upsertModel(a, now))
	}
	res, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, 0, err
	}
	return res.UpsertedCount, res.ModifiedCount, nil
}

// ListFilter narrows List. Range is on the attendance day.
type ListFilter struct {
	Beneficiaire *primitive.ObjectID
	Statut       string
	Range        dates.Range
}

// List returns matching records, newest day first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Attendance, error) {
	q := bson.M{}
	if f.Beneficiaire != nil {
		q["beneficiaire"] = *f.Beneficiaire
	}
	if f.Statut != "" {
		q["statut"] = f.Statut
	}
	f.Range.Apply(q, "date")

	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Attendance
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DaySummary counts one day's records by status and meals served.
type DaySummary struct {
	Day           string `bson:"_id" json:"day"`
	Present       int64  `bson:"present" json:"present"`
	Absent        int64  `bson:"absent" json:"absent"`
	Excuse        int64  `bson:"excuse" json:"excuse"`
	PetitDejeuner int64  `bson:"petitDejeuner" json:"petitDejeuner"`
	Dejeuner      int64  `bson:"dejeuner" json:"dejeuner"`
	Diner         int64  `bson:"diner" json:"diner"`
}

func countIf(cond any) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{cond, 1, 0}}}
}

// Summary aggregates records in rng per day, oldest first.
func (s *Store) Summary(ctx context.Context, rng dates.Range) ([]DaySummary, error) {
	match := bson.M{}
	rng.Apply(match, "date")
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}},
			"present":       countIf(bson.M{"$eq": bson.A{"$statut", models.AttendancePresent}}),
			"absent":        countIf(bson.M{"$eq": bson.A{"$statut", models.AttendanceAbsent}}),
			"excuse":        countIf(bson.M{"$eq": bson.A{"$statut", models.AttendanceExcuse}}),
			"petitDejeuner": countIf("$repas.petitDejeuner"),
			"dejeuner":      countIf("$repas.dejeuner"),
			"diner":         countIf("$repas.diner"),
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []DaySummary
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
