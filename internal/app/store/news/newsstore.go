// internal/app/store/news/newsstore.go
package newsstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/normalize"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateSlug = errors.New("an article with this slug already exists")
	ErrEmptySlug     = errors.New("slug is empty")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("news")}
}

// Create inserts an article. An explicit slug must be free; a slug derived
// from the title gets a numeric suffix until it is.
func (s *Store) Create(ctx context.Context, n models.News) (models.News, error) {
	now := time.Now().UTC()
	n.ID = primitive.NewObjectID()
	explicit := n.Slug != ""
	base := normalize.Slug(n.Slug)
	if !explicit {
		base = normalize.Slug(n.Title)
	}
	if base == "" {
		return models.News{}, ErrEmptySlug
	}
	if n.Published && n.PublishedAt == nil {
		n.PublishedAt = &now
	}
	n.CreatedAt = now
	n.UpdatedAt = now

	for i := 1; i <= 20; i++ {
		n.Slug = base
		if i > 1 {
			n.Slug = fmt.Sprintf("%s-%d", base, i)
		}
		_, err := s.c.InsertOne(ctx, n)
		if err == nil {
			return n, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.News{}, err
		}
		if explicit {
			break
		}
	}
	return models.News{}, ErrDuplicateSlug
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.News, error) {
	var n models.News
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// GetBySlug loads an article; publishedOnly hides drafts.
func (s *Store) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.News, error) {
	q := bson.M{"slug": normalize.Slug(slug)}
	if publishedOnly {
		q["published"] = true
	}
	var n models.News
	if err := s.c.FindOne(ctx, q).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Update replaces the editable fields. Publishing state changes go through
// SetPublished.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, n models.News) error {
	slug := normalize.Slug(n.Slug)
	if slug == "" {
		slug = normalize.Slug(n.Title)
	}
	if slug == "" {
		return ErrEmptySlug
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":     n.Title,
		"slug":      slug,
		"summary":   n.Summary,
		"content":   n.Content,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetPublished publishes or unpublishes an article. publishedAt is set the
// first time it is published and kept afterwards.
func (s *Store) SetPublished(ctx context.Context, id primitive.ObjectID, published bool) (*models.News, error) {
	now := time.Now().UTC()
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"published": published,
		"updatedAt": now,
	}}}}
	if published {
		update = append(update, bson.D{{Key: "$set", Value: bson.M{
			"publishedAt": bson.M{"$ifNull": bson.A{"$publishedAt", now}},
		}}})
	}
	var out models.News
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetImage stores the article image URL.
func (s *Store) SetImage(ctx context.Context, id primitive.ObjectID, url string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"image": url, "updatedAt": time.Now().UTC()}})
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

// List returns one page of articles and the total. publishedOnly lists the
// public feed ordered by publication date; otherwise drafts are included,
// newest first.
func (s *Store) List(ctx context.Context, publishedOnly bool, p paging.Params) ([]models.News, int64, error) {
	q := bson.M{}
	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	if publishedOnly {
		q["published"] = true
		sort = bson.D{{Key: "publishedAt", Value: -1}, {Key: "_id", Value: -1}}
	}
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, q, p.FindOptions(sort))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.News
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
