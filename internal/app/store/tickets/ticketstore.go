// internal/app/store/tickets/ticketstore.go
package ticketstore

import (
	"context"
	"strings"
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
	return &Store{c: db.Collection("tickets")}
}

func (s *Store) Create(ctx context.Context, t models.Ticket) (models.Ticket, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Title = strings.TrimSpace(t.Title)
	if t.Priority == "" {
		t.Priority = "moyenne"
	}
	t.Status = models.TicketOuvert
	t.Comments = []models.TicketComment{}
	t.ResolvedAt = nil
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Ticket{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error) {
	var t models.Ticket
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListFilter narrows List. Mine matches tickets created by or assigned to
// that user.
type ListFilter struct {
	Status     string
	Priority   string
	Category   string
	AssignedTo *primitive.ObjectID
	Mine       *primitive.ObjectID
}

func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) ([]models.Ticket, int64, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Priority != "" {
		q["priority"] = f.Priority
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.AssignedTo != nil {
		q["assignedTo"] = *f.AssignedTo
	}
	if f.Mine != nil {
		q["$or"] = bson.A{bson.M{"createdBy": *f.Mine}, bson.M{"assignedTo": *f.Mine}}
	}
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, q, p.FindOptions(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"comments": 0}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.Ticket
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Ticket, error) {
	var out models.Ticket
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces title, description, category and priority.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, t models.Ticket) (*models.Ticket, error) {
	return s.set(ctx, id, bson.M{"$set": bson.M{
		"title":       strings.TrimSpace(t.Title),
		"description": t.Description,
		"category":    t.Category,
		"priority":    t.Priority,
		"updatedAt":   time.Now().UTC(),
	}})
}

// Assign sets or clears the assignee.
func (s *Store) Assign(ctx context.Context, id primitive.ObjectID, to *primitive.ObjectID) (*models.Ticket, error) {
	return s.set(ctx, id, bson.M{"$set": bson.M{"assignedTo": to, "updatedAt": time.Now().UTC()}})
}

// SetStatus changes the status. resolvedAt is stamped when the ticket
// becomes resolu and cleared when it is reopened.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Ticket, error) {
	now := time.Now().UTC()
	set := bson.M{"status": status, "updatedAt": now}
	switch status {
	case models.TicketResolu:
		set["resolvedAt"] = now
	case models.TicketOuvert, models.TicketEnCours:
		set["resolvedAt"] = nil
	}
	return s.set(ctx, id, bson.M{"$set": set})
}

// AddComment appends a comment.
func (s *Store) AddComment(ctx context.Context, id, author primitive.ObjectID, content string) (models.TicketComment, error) {
	c := models.TicketComment{
		ID:        primitive.NewObjectID(),
		Author:    author,
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updatedAt": c.CreatedAt},
	})
	if err != nil {
		return models.TicketComment{}, err
	}
	if res.MatchedCount == 0 {
		return models.TicketComment{}, mongo.ErrNoDocuments
	}
	return c, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountOpen counts tickets not yet resolved or closed.
func (s *Store) CountOpen(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": bson.M{"$in": bson.A{models.TicketOuvert, models.TicketEnCours}}})
}
