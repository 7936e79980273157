// internal/app/store/announcements/announcementstore.go
package announcementstore

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/paging"
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
	return &Store{c: db.Collection("announcements")}
}

// Create inserts an announcement. Content must already be sanitized.
func (s *Store) Create(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	if a.Priority == "" {
		a.Priority = models.PriorityInfo
	}
	if a.Audience == nil {
		a.Audience = []string{}
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Announcement, error) {
	var a models.Announcement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Update replaces the editable fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, a models.Announcement) error {
	if a.Audience == nil {
		a.Audience = []string{}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":     a.Title,
		"content":   a.Content,
		"priority":  a.Priority,
		"audience":  a.Audience,
		"active":    a.Active,
		"startsAt":  a.StartsAt,
		"endsAt":    a.EndsAt,
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

// Toggle flips active and returns the new value.
func (s *Store) Toggle(ctx context.Context, id primitive.ObjectID) (bool, error) {
	var out models.Announcement
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		mongo.Pipeline{{{Key: "$set", Value: bson.M{
			"active":    bson.M{"$not": bson.A{"$active"}},
			"updatedAt": time.Now().UTC(),
		}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return false, err
	}
	return out.Active, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns one page of all announcements, newest first, and the total.
func (s *Store) List(ctx context.Context, p paging.Params) ([]models.Announcement, int64, error) {
	total, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, bson.M{}, p.FindOptions(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

var priorityRank = map[string]int{
	models.PriorityUrgent:    0,
	models.PriorityImportant: 1,
	models.PriorityInfo:      2,
}

// ActiveFor returns the announcements a role sees at now: active, inside
// their display window, and addressed to everyone or to role. Urgent first,
// then newest.
func (s *Store) ActiveFor(ctx context.Context, role string, now time.Time) ([]models.Announcement, error) {
	q := bson.M{
		"active": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{bson.M{"startsAt": nil}, bson.M{"startsAt": bson.M{"$lte": now}}}},
			bson.M{"$or": bson.A{bson.M{"endsAt": nil}, bson.M{"endsAt": bson.M{"$gt": now}}}},
			bson.M{"$or": bson.A{bson.M{"audience": bson.M{"$size": 0}}, bson.M{"audience": role}}},
		},
	}
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank[out[i].Priority] < priorityRank[out[j].Priority]
	})
	return out, nil
}
