package models

import (
	"time"

	"github.com/google/uuid"
)

// Flow is a short threaded message. Replies point at their parent through
// ParentID; the tree is stored flat.
type Flow struct {
	ID         uuid.UUID  `json:"id"`
	Slug       string     `json:"slug"`
	Content    string     `json:"content"`
	AuthorID   uuid.UUID  `json:"author_id"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	ReplyCount int        `json:"reply_count"`
	IsDeleted  bool       `json:"is_deleted"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Joined on read.
	Author *Author  `json:"author,omitempty"`
	Parent *FlowRef `json:"parent,omitempty"`
}

// IsReply returns true if the flow answers another flow.
func (f *Flow) IsReply() bool {
	return f.ParentID != nil
}

// Ref returns the parent reference other flows embed for this one.
func (f *Flow) Ref() *FlowRef {
	return &FlowRef{ID: f.ID, Slug: f.Slug, Content: f.Content}
}

// FlowRef is the parent preview embedded in replies.
type FlowRef struct {
	ID      uuid.UUID `json:"id"`
	Slug    string    `json:"slug"`
	Content string    `json:"content"`
}
