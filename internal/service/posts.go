// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"threadline/internal/apperr"
	"threadline/internal/background"
	"threadline/internal/cache"
	"threadline/internal/counter"
	"threadline/internal/events"
	"threadline/internal/markdown"
	"threadline/internal/models"
	"threadline/internal/slug"
	"threadline/internal/store"
	"threadline/internal/users"
)

// CreatePostInput is the payload for a new post or reply.
type CreatePostInput struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	MainImage *string    `json:"main_image,omitempty"`
	TopicID   uuid.UUID  `json:"topic_id"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Status    *bool      `json:"status,omitempty"`
}

// UpdatePostInput carries optional changes; nil fields are left alone. An
// empty MainImage clears the image.
type UpdatePostInput struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	MainImage *string `json:"main_image,omitempty"`
	Status    *bool   `json:"status,omitempty"`
}

// ScoresInput is an externally computed vote tally.
type ScoresInput struct {
	Score     int `json:"score"`
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// PostService manages long-form posts inside topics.
type PostService struct {
	posts   PostRepository
	topics  TopicRepository
	dir     *users.Directory
	views   cache.ViewRecorder
	slugs   *slug.Allocator
	counter *counter.PostPropagator
	events  *events.Bridge
	runner  *background.Runner
}

// NewPostService creates a PostService.
func NewPostService(
	posts PostRepository,
	topics TopicRepository,
	dir *users.Directory,
	views cache.ViewRecorder,
	bridge *events.Bridge,
	runner *background.Runner,
	slugOpts ...slug.Option,
) *PostService {
	return &PostService{
		posts:   posts,
		topics:  topics,
		dir:     dir,
		views:   views,
		slugs:   slug.NewAllocator(posts, slugOpts...),
		counter: counter.NewPostPropagator(topics, posts, nil),
		events:  bridge,
		runner:  runner,
	}
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	return title, checkLength("title", title, 1, MaxPostTitle)
}

func validatePostContent(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", apperr.Validation("content is required")
	}
	return raw, checkLength("content", raw, 1, MaxPostContent)
}

// Create stores a new post. Topic and parent statistics are recounted in
// the background; a reply notifies the parent's author unless they replied
// to themselves.
func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, in CreatePostInput) (*models.Post, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	content, err := validatePostContent(in.Content)
	if err != nil {
		return nil, err
	}

	author, err := requireActor(ctx, s.dir, authorID)
	if err != nil {
		return nil, err
	}

	topic, err := s.topics.FindByID(ctx, in.TopicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, apperr.NotFound("topic not found")
	}

	var parent *models.Post
	if in.ParentID != nil {
		parent, err = s.posts.FindByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperr.NotFound("parent post not found")
		}
	}

	status := true
	if in.Status != nil {
		status = *in.Status
	}

	post, err := createWithSlug(ctx, s.slugs, title, func(sl string) (*models.Post, error) {
		return s.posts.Create(ctx, &models.Post{
			Title:       title,
			Slug:        sl,
			Content:     content,
			MainImage:   emptyToNil(in.MainImage),
			UserID:      author.ID,
			TopicID:     topic.ID,
			ParentID:    in.ParentID,
			Status:      status,
			ReadingTime: markdown.ReadingTime(content),
		})
	})
	if err != nil {
		return nil, err
	}

	topicID, parentID := post.TopicID, post.ParentID
	s.runner.Go("post-stats:create", func(ctx context.Context) error {
		return s.counter.OnChildCreated(ctx, topicID, parentID)
	})

	if parent != nil && parent.UserID != author.ID {
		s.events.PostReplied(events.PostReplied{
			PostID:          post.ID,
			PostSlug:        post.Slug,
			ParentID:        parent.ID,
			ParentTitle:     parent.Title,
			ParentSlug:      parent.Slug,
			ParentExcerpt:   markdown.PlainText(parent.Content),
			ParentOwnerID:   parent.UserID,
			ReplierID:       author.ID,
			ReplierUsername: author.Username,
			ReplierNickname: author.Nickname,
		})
	}

	post.Author = author.Author()
	return post, nil
}

// IncrementView counts one view of postID by clientID at most once per
// cache TTL. It reports whether this call counted. Cache failures are
// logged and count nothing.
func (s *PostService) IncrementView(ctx context.Context, postID uuid.UUID, clientID string) bool {
	if clientID == "" {
		return false
	}
	already, err := s.views.RecordView(ctx, postID.String(), clientID)
	if err != nil {
		slog.Warn("view not recorded", "post", postID, "error", err)
		return false
	}
	if already {
		return false
	}
	s.runner.Go("post-view", func(ctx context.Context) error {
		return s.posts.IncrementViewCount(ctx, postID)
	})
	return true
}

// List returns public posts, newest first.
func (s *PostService) List(ctx context.Context, p models.Pagination) (models.Page[models.Post], error) {
	return s.page(ctx, store.PostFilter{Public: true}, p)
}

// ListTrending returns public posts ordered by view count.
func (s *PostService) ListTrending(ctx context.Context, p models.Pagination) (models.Page[models.Post], error) {
	return s.page(ctx, store.PostFilter{Public: true, Sort: store.SortViews}, p)
}

// ListByUserID returns a user's public posts.
func (s *PostService) ListByUserID(ctx context.Context, userID uuid.UUID, p models.Pagination) (models.Page[models.Post], error) {
	return s.page(ctx, store.PostFilter{UserID: &userID, Public: true}, p)
}

// ListByUsername returns a user's public posts.
func (s *PostService) ListByUsername(ctx context.Context, username string, p models.Pagination) (models.Page[models.Post], error) {
	u, err := s.dir.GetByUsername(ctx, username)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	if u == nil {
		return models.Page[models.Post]{}, apperr.NotFound("user not found")
	}
	return s.ListByUserID(ctx, u.ID, p)
}

// ListByTopic returns the public root posts of a topic.
func (s *PostService) ListByTopic(ctx context.Context, topicID uuid.UUID, p models.Pagination) (models.Page[models.Post], error) {
	topic, err := s.topics.FindByID(ctx, topicID)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	if topic == nil {
		return models.Page[models.Post]{}, apperr.NotFound("topic not found")
	}
	return s.page(ctx, store.PostFilter{TopicID: &topicID, RootOnly: true, Public: true}, p)
}

// ListReplies returns the public replies of a post.
func (s *PostService) ListReplies(ctx context.Context, parentID uuid.UUID, p models.Pagination) (models.Page[models.Post], error) {
	if _, err := s.FindByID(ctx, parentID); err != nil {
		return models.Page[models.Post]{}, err
	}
	return s.page(ctx, store.PostFilter{ParentID: &parentID, Public: true}, p)
}

// ListMine returns every post the actor wrote, in any status.
func (s *PostService) ListMine(ctx context.Context, actorID uuid.UUID, p models.Pagination) (models.Page[models.Post], error) {
	return s.page(ctx, store.PostFilter{UserID: &actorID}, p)
}

// ListAll returns every post, newest first. Used by moderators.
func (s *PostService) ListAll(ctx context.Context, p models.Pagination) (models.Page[models.Post], error) {
	return s.page(ctx, store.PostFilter{}, p)
}

// FindByID returns a post regardless of visibility.
func (s *PostService) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}
	if err := s.attachAuthors(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// FindBySlug returns a post if viewerID may see it. Unpublished posts and
// posts in inactive topics are visible only to their author and staff.
// viewerID is nil for anonymous readers.
func (s *PostService) FindBySlug(ctx context.Context, slug string, viewerID *uuid.UUID) (*models.Post, error) {
	post, err := s.posts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}
	topic, err := s.topics.FindByID(ctx, post.TopicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, apperr.NotFound("topic not found")
	}

	if !post.Status || !topic.Status {
		var viewer *models.User
		if viewerID != nil {
			if viewer, err = s.dir.Get(ctx, *viewerID); err != nil {
				return nil, err
			}
		}
		if !canSeeRestricted(post, viewer) {
			return nil, apperr.Forbidden("you do not have access to this post")
		}
	}

	if err := s.attachAuthors(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func canSeeRestricted(post *models.Post, viewer *models.User) bool {
	if viewer == nil {
		return false
	}
	return viewer.IsStaff() || viewer.ID == post.UserID
}

// Update edits a post on behalf of its author or staff.
func (s *PostService) Update(ctx context.Context, id uuid.UUID, actorID uuid.UUID, in UpdatePostInput) (*models.Post, error) {
	actor, err := requireActor(ctx, s.dir, actorID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}
	if post.UserID != actor.ID && !actor.IsStaff() {
		return nil, apperr.Forbidden("you cannot modify this post")
	}
	return s.apply(ctx, post, in)
}

// apply writes in to post. A title change picks a new slug, content changes
// recompute the reading time, and a status change recounts statistics.
func (s *PostService) apply(ctx context.Context, post *models.Post, in UpdatePostInput) (*models.Post, error) {
	retitled := false
	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		retitled = title != post.Title
		post.Title = title
	}
	if in.Content != nil {
		content, err := validatePostContent(*in.Content)
		if err != nil {
			return nil, err
		}
		post.Content = content
		post.ReadingTime = markdown.ReadingTime(content)
	}
	if in.MainImage != nil {
		post.MainImage = emptyToNil(in.MainImage)
	}
	statusChanged := in.Status != nil && *in.Status != post.Status
	if in.Status != nil {
		post.Status = *in.Status
	}

	var (
		updated *models.Post
		err     error
	)
	if retitled {
		updated, err = createWithSlug(ctx, s.slugs, post.Title, func(sl string) (*models.Post, error) {
			post.Slug = sl
			return s.posts.Update(ctx, post)
		})
	} else {
		updated, err = s.posts.Update(ctx, post)
	}
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("post not found")
	}

	if statusChanged {
		topicID, parentID := updated.TopicID, updated.ParentID
		s.runner.Go("post-stats:status", func(ctx context.Context) error {
			return s.counter.OnChildRemoved(ctx, topicID, parentID)
		})
	}

	if err := s.attachAuthors(ctx, []*models.Post{updated}); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete hard-deletes a post and recounts its topic and parent in the
// background. Replies survive without a parent.
func (s *PostService) Delete(ctx context.Context, id uuid.UUID) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return apperr.NotFound("post not found")
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	topicID, parentID := post.TopicID, post.ParentID
	s.runner.Go("post-stats:delete", func(ctx context.Context) error {
		return s.counter.OnChildRemoved(ctx, topicID, parentID)
	})
	return nil
}

// UpdateScores stores an external vote tally. Zero values are stored as
// absent.
func (s *PostService) UpdateScores(ctx context.Context, id uuid.UUID, in ScoresInput) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return apperr.NotFound("post not found")
	}
	return s.posts.UpdateScores(ctx, id, nonZero(in.Score), nonZero(in.Upvotes), nonZero(in.Downvotes))
}

func (s *PostService) page(ctx context.Context, filter store.PostFilter, p models.Pagination) (models.Page[models.Post], error) {
	page, err := listPage(ctx, p,
		func(ctx context.Context, limit, offset int) ([]models.Post, error) {
			return s.posts.List(ctx, filter, limit, offset)
		},
		func(ctx context.Context) (int, error) {
			return s.posts.Count(ctx, filter)
		},
	)
	if err != nil {
		return page, err
	}
	ptrs := make([]*models.Post, len(page.Data))
	for i := range page.Data {
		ptrs[i] = &page.Data[i]
	}
	if err := s.attachAuthors(ctx, ptrs); err != nil {
		return models.Page[models.Post]{}, err
	}
	return page, nil
}

func (s *PostService) attachAuthors(ctx context.Context, posts []*models.Post) error {
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.UserID
	}
	authors, err := s.dir.Authors(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.Author = authors[p.UserID]
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}
