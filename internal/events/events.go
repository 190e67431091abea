// Package events emits best-effort domain notifications when content gets a
// reply. Nothing here may slow down or fail the write that triggered it:
// publication runs detached and errors end up in the log.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"threadline/internal/background"
)

// Kind names an event type. It doubles as the channel suffix.
type Kind string

const (
	KindFlowReplied Kind = "flow.replied"
	KindPostReplied Kind = "post.reply"
)

// DefaultExcerptLen is the number of runes of parent content carried in a
// notification payload.
const DefaultExcerptLen = 30

// FlowReplied is published when someone answers another user's flow.
type FlowReplied struct {
	FlowID          uuid.UUID `json:"flow_id"`
	FlowSlug        string    `json:"flow_slug"`
	ParentID        uuid.UUID `json:"parent_id"`
	ParentSlug      string    `json:"parent_slug"`
	ParentExcerpt   string    `json:"parent_excerpt"`
	ParentOwnerID   uuid.UUID `json:"parent_owner_id"`
	ReplierID       uuid.UUID `json:"replier_id"`
	ReplierUsername string    `json:"replier_username"`
	ReplierNickname string    `json:"replier_nickname"`
}

// PostReplied is published when someone answers another user's post.
type PostReplied struct {
	PostID          uuid.UUID `json:"post_id"`
	PostSlug        string    `json:"post_slug"`
	ParentID        uuid.UUID `json:"parent_id"`
	ParentTitle     string    `json:"parent_title"`
	ParentSlug      string    `json:"parent_slug"`
	ParentExcerpt   string    `json:"parent_excerpt"`
	ParentOwnerID   uuid.UUID `json:"parent_owner_id"`
	ReplierID       uuid.UUID `json:"replier_id"`
	ReplierUsername string    `json:"replier_username"`
	ReplierNickname string    `json:"replier_nickname"`
}

// Event is the envelope handed to publishers.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Kind       Kind            `json:"kind"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher delivers an event to its consumers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Excerpt returns at most n runes of s, never splitting a multi-byte rune.
func Excerpt(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Bridge turns domain events into detached publish tasks.
type Bridge struct {
	pub        Publisher
	runner     *background.Runner
	excerptLen int
	now        func() time.Time
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithExcerptLen overrides DefaultExcerptLen. Values below 1 are ignored.
func WithExcerptLen(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.excerptLen = n
		}
	}
}

// WithClock sets the timestamp source for envelopes.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

// NewBridge creates a bridge publishing through pub on runner.
func NewBridge(pub Publisher, runner *background.Runner, opts ...Option) *Bridge {
	b := &Bridge{
		pub:        pub,
		runner:     runner,
		excerptLen: DefaultExcerptLen,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ExcerptLen returns the configured excerpt length in runes.
func (b *Bridge) ExcerptLen() int {
	return b.excerptLen
}

// Emit schedules publication of payload and returns immediately.
func (b *Bridge) Emit(kind Kind, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("event encode failed", "kind", kind, "error", err)
		return
	}
	ev := Event{
		ID:         uuid.New(),
		Kind:       kind,
		OccurredAt: b.now().UTC(),
		Payload:    data,
	}
	b.runner.Go("event:"+string(kind), func(ctx context.Context) error {
		if err := b.pub.Publish(ctx, ev); err != nil {
			return fmt.Errorf("publish %s: %w", kind, err)
		}
		return nil
	})
}

// FlowReplied emits a KindFlowReplied event, clipping the parent excerpt.
func (b *Bridge) FlowReplied(p FlowReplied) {
	p.ParentExcerpt = Excerpt(p.ParentExcerpt, b.excerptLen)
	b.Emit(KindFlowReplied, p)
}

// PostReplied emits a KindPostReplied event, clipping the parent excerpt.
func (b *Bridge) PostReplied(p PostReplied) {
	p.ParentExcerpt = Excerpt(p.ParentExcerpt, b.excerptLen)
	b.Emit(KindPostReplied, p)
}

// Decode unmarshals an event payload into v.
func Decode(ev Event, v any) error {
	return json.Unmarshal(ev.Payload, v)
}
