package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"threadline/internal/apperr"
	"threadline/internal/background"
	"threadline/internal/models"
)

// AdminService is the moderation surface. Callers must already have checked
// that the actor is staff; no ownership rules apply here.
type AdminService struct {
	posts    *PostService
	flows    *FlowService
	contacts *ContactService
	topics   TopicRepository
	users    UserRepository
	runner   *background.Runner
}

// NewAdminService creates an AdminService.
func NewAdminService(
	posts *PostService,
	flows *FlowService,
	contacts *ContactService,
	topics TopicRepository,
	users UserRepository,
	runner *background.Runner,
) *AdminService {
	return &AdminService{
		posts:    posts,
		flows:    flows,
		contacts: contacts,
		topics:   topics,
		users:    users,
		runner:   runner,
	}
}

// ListPosts returns every post, newest first.
func (s *AdminService) ListPosts(ctx context.Context, p models.Pagination) (models.Page[models.Post], error) {
	return s.posts.ListAll(ctx, p)
}

// FindPost returns a post regardless of visibility.
func (s *AdminService) FindPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.posts.FindByID(ctx, id)
}

// UpdatePost edits any post with the same slug and recount rules as an
// author edit.
func (s *AdminService) UpdatePost(ctx context.Context, id uuid.UUID, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}
	return s.posts.apply(ctx, post, in)
}

// DeletePost hard-deletes a post.
func (s *AdminService) DeletePost(ctx context.Context, id uuid.UUID) error {
	return s.posts.Delete(ctx, id)
}

// ListTopics returns every topic, newest first.
func (s *AdminService) ListTopics(ctx context.Context, p models.Pagination) (models.Page[models.Topic], error) {
	return listPage(ctx, p, s.topics.List, s.topics.Count)
}

// UpdateTopicInput carries optional topic changes; nil fields are left alone.
type UpdateTopicInput struct {
	Title  *string `json:"title,omitempty"`
	Status *bool   `json:"status,omitempty"`
}

// UpdateTopic renames or (de)activates a topic. The slug never changes. An
// inactive topic hides its posts from public listings and from readers who
// are neither the post's author nor staff.
func (s *AdminService) UpdateTopic(ctx context.Context, id uuid.UUID, in UpdateTopicInput) (*models.Topic, error) {
	topic, err := s.topics.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, apperr.NotFound("topic not found")
	}

	var title string
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
		if err := checkLength("title", title, 1, MaxTopicTitle); err != nil {
			return nil, err
		}
	}

	if in.Title != nil && title != topic.Title {
		if err := s.topics.SetTitle(ctx, id, title); err != nil {
			return nil, err
		}
	}
	if in.Status != nil && *in.Status != topic.Status {
		if err := s.topics.SetStatus(ctx, id, *in.Status); err != nil {
			return nil, err
		}
		slog.Info("topic status changed", "topic", id, "active", *in.Status)
	}

	updated, err := s.topics.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("topic not found")
	}
	return updated, nil
}

// DeleteTopic hard-deletes a topic and its posts.
func (s *AdminService) DeleteTopic(ctx context.Context, id uuid.UUID) error {
	topic, err := s.topics.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if topic == nil {
		return apperr.NotFound("topic not found")
	}
	return s.topics.Delete(ctx, id)
}

// ListFlows returns every flow, deleted ones included.
func (s *AdminService) ListFlows(ctx context.Context, p models.Pagination) (models.Page[models.Flow], error) {
	return s.flows.ListAll(ctx, p)
}

// ListContacts returns every contact message, newest first.
func (s *AdminService) ListContacts(ctx context.Context, p models.Pagination) (models.Page[models.ContactMessage], error) {
	return s.contacts.List(ctx, false, p)
}

// FindContact returns a message and marks it read in the background. The
// returned value reflects the state before marking.
func (s *AdminService) FindContact(ctx context.Context, slug string) (*models.ContactMessage, error) {
	msg, err := s.contacts.find(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !msg.IsRead {
		id := msg.ID
		s.runner.Go("contact-mark-read", func(ctx context.Context) error {
			return s.contacts.contacts.MarkRead(ctx, id)
		})
	}
	return msg, nil
}

// DeleteContact removes a message.
func (s *AdminService) DeleteContact(ctx context.Context, id uuid.UUID) error {
	return s.contacts.Delete(ctx, id)
}

// ListUsers returns directory entries, oldest first.
func (s *AdminService) ListUsers(ctx context.Context, p models.Pagination) (models.Page[models.User], error) {
	return listPage(ctx, p, s.users.List, s.users.Count)
}

// FindUser returns one directory entry.
func (s *AdminService) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}
