// Package service implements the content tree operations on top of the
// stores: slug allocation, counter propagation, view deduplication and
// reply notifications. Services are stateless; every invariant that needs
// atomicity is delegated to a single store call.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"threadline/internal/apperr"
	"threadline/internal/models"
	"threadline/internal/slug"
	"threadline/internal/store"
	"threadline/internal/users"
)

// insertAttempts bounds allocate+insert rounds lost to concurrent writers
// that took the same slug between the existence check and the insert.
const insertAttempts = 3

// Content limits, in runes.
const (
	MaxFlowContent    = 500
	MaxTopicTitle     = 100
	MaxPostTitle      = 100
	MaxPostContent    = 5_000_000
	MaxContactName    = 100
	MaxContactEmail   = 100
	MaxContactSubject = 150
	MaxContactMessage = 1000
)

// FlowRepository is the flow persistence the services need.
type FlowRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Flow, error)
	FindBySlug(ctx context.Context, slug string) (*models.Flow, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter store.FlowFilter, limit, offset int) ([]models.Flow, error)
	Count(ctx context.Context, filter store.FlowFilter) (int, error)
	Create(ctx context.Context, f *models.Flow) (*models.Flow, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content, slug string) (*models.Flow, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (*uuid.UUID, bool, error)
	IncrementReplyCount(ctx context.Context, id uuid.UUID, delta int) error
}

// PostRepository is the post persistence the services need.
type PostRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter store.PostFilter, limit, offset int) ([]models.Post, error)
	Count(ctx context.Context, filter store.PostFilter) (int, error)
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) (*models.Post, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	UpdateScores(ctx context.Context, id uuid.UUID, score, upvotes, downvotes *int) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountPublishedChildren(ctx context.Context, parentID uuid.UUID) (int, error)
	SetStats(ctx context.Context, id uuid.UUID, postCount int, lastPostAt *time.Time) error
}

// TopicRepository is the topic authority.
type TopicRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Topic, error)
	List(ctx context.Context, limit, offset int) ([]models.Topic, error)
	Count(ctx context.Context) (int, error)
	SetTitle(ctx context.Context, id uuid.UUID, title string) error
	SetStatus(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountPublishedPosts(ctx context.Context, topicID uuid.UUID) (int, error)
	SetStats(ctx context.Context, id uuid.UUID, postCount int, lastPostAt *time.Time) error
}

// ContactRepository stores contact form submissions.
type ContactRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error)
	FindBySlug(ctx context.Context, slug string) (*models.ContactMessage, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, unreadOnly bool, limit, offset int) ([]models.ContactMessage, error)
	Count(ctx context.Context, unreadOnly bool) (int, error)
	Create(ctx context.Context, m *models.ContactMessage) (*models.ContactMessage, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository lists directory entries for the admin views.
type UserRepository interface {
	users.Reader
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Count(ctx context.Context) (int, error)
}

// listPage runs the page query and the count query concurrently.
func listPage[T any](
	ctx context.Context,
	p models.Pagination,
	list func(ctx context.Context, limit, offset int) ([]T, error),
	count func(ctx context.Context) (int, error),
) (models.Page[T], error) {
	p = p.Normalize()

	var (
		items []T
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = list(gctx, p.Limit, p.Skip())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Page[T]{}, err
	}
	return models.NewPage(items, total, p), nil
}

// createWithSlug allocates a slug from seed and hands it to write. When the
// store's unique index rejects the slug, allocation starts over.
func createWithSlug[T any](ctx context.Context, alloc *slug.Allocator, seed string, write func(slug string) (T, error)) (T, error) {
	var zero T
	for attempt := 1; attempt <= insertAttempts; attempt++ {
		s, err := alloc.Allocate(ctx, seed)
		if err != nil {
			return zero, err
		}
		v, err := write(s)
		if errors.Is(err, store.ErrSlugTaken) {
			slog.Debug("slug raced, reallocating", "slug", s, "attempt", attempt)
			continue
		}
		return v, err
	}
	return zero, fmt.Errorf("%w: %w", slug.ErrExhausted, store.ErrSlugTaken)
}

// requireActor resolves the acting user or fails with NOT_FOUND.
func requireActor(ctx context.Context, dir *users.Directory, id uuid.UUID) (*models.User, error) {
	u, err := dir.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

// checkLength validates a trimmed field against [min, max] runes.
func checkLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min {
		if min == 1 {
			return apperr.Validation(field + " is required")
		}
		return apperr.Validation(fmt.Sprintf("%s must be at least %d characters", field, min))
	}
	if n > max {
		return apperr.Validation(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

// nonZero maps zero to nil; vote tallies store absent and zero alike.
func nonZero(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
