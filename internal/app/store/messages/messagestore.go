// internal/app/store/messages/messagestore.go
package messagestore

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

// MaxContentLength caps a single message.
const MaxContentLength = 4000

var (
	ErrEmptyContent = errors.New("message content is empty")
	ErrTooLong      = errors.New("message content is too long")
	ErrSelf         = errors.New("cannot message yourself")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("messages")}
}

// Send stores a message from one user to another.
func (s *Store) Send(ctx context.Context, from, to primitive.ObjectID, content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return models.Message{}, ErrEmptyContent
	case len([]rune(content)) > MaxContentLength:
		return models.Message{}, ErrTooLong
	case from == to:
		return models.Message{}, ErrSelf
	}
	m := models.Message{
		ID:        primitive.NewObjectID(),
		From:      from,
		To:        to,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

func between(a, b primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"from": a, "to": b},
		bson.M{"from": b, "to": a},
	}}
}

// Thread returns one page of the conversation between me and peer, newest
// first, and the total.
func (s *Store) Thread(ctx context.Context, me, peer primitive.ObjectID, p paging.Params) ([]models.Message, int64, error) {
	q := between(me, peer)
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, q, p.FindOptions(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkThreadRead marks every unread message from peer to me as read and
// returns how many changed.
func (s *Store) MarkThreadRead(ctx context.Context, me, peer primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"from": peer, "to": me, "read": false},
		bson.M{"$set": bson.M{"read": true, "readAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// UnreadCount counts unread messages addressed to me.
func (s *Store) UnreadCount(ctx context.Context, me primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"to": me, "read": false})
}

// Conversation summarizes the thread with one peer.
type Conversation struct {
	Peer        primitive.ObjectID `bson:"_id" json:"peer"`
	PeerName    string             `bson:"-" json:"peerName,omitempty"`
	LastMessage models.Message     `bson:"lastMessage" json:"lastMessage"`
	Unread      int64              `bson:"unread" json:"unread"`
}

// Conversations lists my threads, most recent activity first.
func (s *Store) Conversations(ctx context.Context, me primitive.ObjectID) ([]Conversation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{bson.M{"from": me}, bson.M{"to": me}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":         bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$from", me}}, "$to", "$from"}},
			"lastMessage": bson.M{"$first": "$$ROOT"},
			"unread": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$to", me}},
					bson.M{"$eq": bson.A{"$read", false}},
				}}, 1, 0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastMessage.createdAt", Value: -1}, {Key: "lastMessage._id", Value: -1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline, options.Aggregate())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
