// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a long-form forum message inside a topic. A post with a ParentID
// is a reply to another post of the same topic.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	MainImage   *string    `json:"main_image,omitempty"`
	UserID      uuid.UUID  `json:"user_id"`
	TopicID     uuid.UUID  `json:"topic_id"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Status      bool       `json:"status"`
	ViewCount   int        `json:"view_count"`
	PostCount   int        `json:"post_count"`
	LastPostAt  *time.Time `json:"last_post_at,omitempty"`
	ReadingTime int        `json:"reading_time"`
	Upvotes     *int       `json:"upvotes,omitempty"`
	Downvotes   *int       `json:"downvotes,omitempty"`
	Score       *int       `json:"score,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Joined on read.
	Author *Author   `json:"author,omitempty"`
	Topic  *TopicRef `json:"topic,omitempty"`
	Parent *PostRef  `json:"parent,omitempty"`
}

// IsPublished returns true if the post is visible to the public.
func (p *Post) IsPublished() bool {
	return p.Status
}

// Ref returns the parent reference replies embed for this post.
func (p *Post) Ref() *PostRef {
	return &PostRef{ID: p.ID, Title: p.Title, Slug: p.Slug}
}

// PostRef is the parent preview embedded in replies.
type PostRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Slug  string    `json:"slug"`
}
