// Package counter keeps the denormalized child counts of the content tree in
// step with writes. Flow counts move by single-row deltas; post and topic
// counts are recomputed exactly from the children that exist.
package counter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReplyCounter applies a delta to a flow's reply count in one statement.
type ReplyCounter interface {
	IncrementReplyCount(ctx context.Context, id uuid.UUID, delta int) error
}

// FlowPropagator maintains Flow.ReplyCount incrementally.
type FlowPropagator struct {
	flows ReplyCounter
}

// NewFlowPropagator creates a propagator over flows.
func NewFlowPropagator(flows ReplyCounter) *FlowPropagator {
	return &FlowPropagator{flows: flows}
}

// OnChildCreated adds one reply to the parent. A missing parent is a no-op.
func (p *FlowPropagator) OnChildCreated(ctx context.Context, parentID uuid.UUID) error {
	if err := p.flows.IncrementReplyCount(ctx, parentID, 1); err != nil {
		return fmt.Errorf("flow child created: %w", err)
	}
	return nil
}

// OnChildSoftDeleted removes one reply from the parent. Call it only after
// the store reported an actual transition to deleted.
func (p *FlowPropagator) OnChildSoftDeleted(ctx context.Context, parentID uuid.UUID) error {
	if err := p.flows.IncrementReplyCount(ctx, parentID, -1); err != nil {
		return fmt.Errorf("flow child deleted: %w", err)
	}
	return nil
}

// OnChildReparented moves one reply from oldParent to newParent. Either
// side may be nil.
func (p *FlowPropagator) OnChildReparented(ctx context.Context, oldParent, newParent *uuid.UUID) error {
	if oldParent != nil && newParent != nil && *oldParent == *newParent {
		return nil
	}
	if oldParent != nil {
		if err := p.OnChildSoftDeleted(ctx, *oldParent); err != nil {
			return err
		}
	}
	if newParent != nil {
		if err := p.OnChildCreated(ctx, *newParent); err != nil {
			return err
		}
	}
	return nil
}

// StatsCounter recounts and stores the published children of one parent
// kind (topics or posts).
type StatsCounter interface {
	SetStats(ctx context.Context, id uuid.UUID, postCount int, lastPostAt *time.Time) error
}

// TopicStats is the topic side of the post propagator.
type TopicStats interface {
	StatsCounter
	CountPublishedPosts(ctx context.Context, topicID uuid.UUID) (int, error)
}

// PostStats is the parent-post side of the post propagator.
type PostStats interface {
	StatsCounter
	CountPublishedChildren(ctx context.Context, parentID uuid.UUID) (int, error)
}

// PostPropagator maintains Topic.PostCount and Post.PostCount by exact recount.
// Recounts are serialized: the last one to run reads every committed child.
type PostPropagator struct {
	mu     sync.Mutex
	topics TopicStats
	posts  PostStats
	now    func() time.Time
}

// NewPostPropagator creates a propagator. A nil now uses time.Now.
func NewPostPropagator(topics TopicStats, posts PostStats, now func() time.Time) *PostPropagator {
	if now == nil {
		now = time.Now
	}
	return &PostPropagator{topics: topics, posts: posts, now: now}
}

// OnChildCreated recounts the topic and, for a reply, the parent post, and
// stamps both with the current time as their latest activity.
func (p *PostPropagator) OnChildCreated(ctx context.Context, topicID uuid.UUID, parentID *uuid.UUID) error {
	now := p.now().UTC()
	return p.recount(ctx, topicID, parentID, &now)
}

// OnChildRemoved recounts after a hard delete or a status change. Activity
// timestamps are left as they were.
func (p *PostPropagator) OnChildRemoved(ctx context.Context, topicID uuid.UUID, parentID *uuid.UUID) error {
	return p.recount(ctx, topicID, parentID, nil)
}

func (p *PostPropagator) recount(ctx context.Context, topicID uuid.UUID, parentID *uuid.UUID, at *time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.topics.CountPublishedPosts(ctx, topicID)
	if err != nil {
		return fmt.Errorf("recount topic %s: %w", topicID, err)
	}
	if err := p.topics.SetStats(ctx, topicID, n, at); err != nil {
		return fmt.Errorf("store topic stats: %w", err)
	}

	if parentID == nil {
		return nil
	}
	n, err = p.posts.CountPublishedChildren(ctx, *parentID)
	if err != nil {
		return fmt.Errorf("recount post %s: %w", *parentID, err)
	}
	if err := p.posts.SetStats(ctx, *parentID, n, at); err != nil {
		return fmt.Errorf("store post stats: %w", err)
	}
	return nil
}
