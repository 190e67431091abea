package models

import (
	"time"

	"github.com/google/uuid"
)

// Topic groups posts. Inactive topics hide their posts from public listings.
type Topic struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	TagID      *uuid.UUID `json:"tag_id,omitempty"`
	UserID     uuid.UUID  `json:"user_id"`
	Status     bool       `json:"status"`
	PostCount  int        `json:"post_count"`
	LastPostAt *time.Time `json:"last_post_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Ref returns the topic reference embedded in posts.
func (t *Topic) Ref() *TopicRef {
	return &TopicRef{ID: t.ID, Title: t.Title, Slug: t.Slug, TagID: t.TagID}
}

// TopicRef is the topic preview embedded in posts.
type TopicRef struct {
	ID    uuid.UUID  `json:"id"`
	Title string     `json:"title"`
	Slug  string     `json:"slug"`
	TagID *uuid.UUID `json:"tag_id,omitempty"`
}
