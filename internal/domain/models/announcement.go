// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement priorities.
const (
	PriorityInfo      = "info"
	PriorityImportant = "important"
	PriorityUrgent    = "urgent"
)

// Announcement is an internal notice shown to staff. An empty Audience
// means every role sees it.
type Announcement struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title     string              `bson:"title" json:"title"`
	Content   string              `bson:"content" json:"content"` // sanitized HTML
	Priority  string              `bson:"priority" json:"priority"`
	Audience  []string            `bson:"audience" json:"audience"`
	Active    bool                `bson:"active" json:"active"`
	StartsAt  *time.Time          `bson:"startsAt,omitempty" json:"startsAt,omitempty"`
	EndsAt    *time.Time          `bson:"endsAt,omitempty" json:"endsAt,omitempty"`
	Author    *primitive.ObjectID `bson:"author,omitempty" json:"author,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// News is a public article for the marketing site.
type News struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Slug        string              `bson:"slug" json:"slug"`
	Summary     string              `bson:"summary,omitempty" json:"summary,omitempty"`
	Content     string              `bson:"content" json:"content"` // sanitized HTML
	Image       string              `bson:"image,omitempty" json:"image,omitempty"`
	Published   bool                `bson:"published" json:"published"`
	PublishedAt *time.Time          `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	Author      *primitive.ObjectID `bson:"author,omitempty" json:"author,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}
