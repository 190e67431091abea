package service

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"threadline/internal/apperr"
	"threadline/internal/models"
	"threadline/internal/slug"
)

// ContactInput is a contact form submission.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactService handles contact form messages. Their slugs form their own
// namespace, derived from the subject.
type ContactService struct {
	contacts ContactRepository
	slugs    *slug.Allocator
}

// NewContactService creates a ContactService.
func NewContactService(contacts ContactRepository, slugOpts ...slug.Option) *ContactService {
	return &ContactService{
		contacts: contacts,
		slugs:    slug.NewAllocator(contacts, slugOpts...),
	}
}

func (in ContactInput) normalize() (ContactInput, error) {
	out := ContactInput{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}
	checks := []struct {
		field, value string
		max          int
	}{
		{"name", out.Name, MaxContactName},
		{"email", out.Email, MaxContactEmail},
		{"subject", out.Subject, MaxContactSubject},
		{"message", out.Message, MaxContactMessage},
	}
	for _, c := range checks {
		if err := checkLength(c.field, c.value, 1, c.max); err != nil {
			return out, err
		}
	}
	addr, err := mail.ParseAddress(out.Email)
	if err != nil || addr.Address != out.Email {
		return out, apperr.Validation("email must be a valid address")
	}
	return out, nil
}

// Submit validates and stores a message.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*models.ContactMessage, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	msg, err := createWithSlug(ctx, s.slugs, in.Subject, func(sl string) (*models.ContactMessage, error) {
		return s.contacts.Create(ctx, &models.ContactMessage{
			Name:    in.Name,
			Email:   in.Email,
			Subject: in.Subject,
			Message: in.Message,
			Slug:    sl,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("contact message received", "slug", msg.Slug)
	return msg, nil
}

// List returns messages, newest first, optionally only unread ones.
func (s *ContactService) List(ctx context.Context, unreadOnly bool, p models.Pagination) (models.Page[models.ContactMessage], error) {
	return listPage(ctx, p,
		func(ctx context.Context, limit, offset int) ([]models.ContactMessage, error) {
			return s.contacts.List(ctx, unreadOnly, limit, offset)
		},
		func(ctx context.Context) (int, error) {
			return s.contacts.Count(ctx, unreadOnly)
		},
	)
}

// ListUnread returns unread messages, newest first.
func (s *ContactService) ListUnread(ctx context.Context, p models.Pagination) (models.Page[models.ContactMessage], error) {
	return s.List(ctx, true, p)
}

// FindBySlug returns an unread message.
func (s *ContactService) FindBySlug(ctx context.Context, slug string) (*models.ContactMessage, error) {
	msg, err := s.find(ctx, slug)
	if err != nil {
		return nil, err
	}
	if msg.IsRead {
		return nil, apperr.NotFound("contact message not found")
	}
	return msg, nil
}

func (s *ContactService) find(ctx context.Context, slug string) (*models.ContactMessage, error) {
	msg, err := s.contacts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("contact message not found")
	}
	return msg, nil
}

// MarkRead flags a message as read.
func (s *ContactService) MarkRead(ctx context.Context, id uuid.UUID) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	return s.contacts.MarkRead(ctx, id)
}

// Delete removes a message.
func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	return s.contacts.Delete(ctx, id)
}

func (s *ContactService) exists(ctx context.Context, id uuid.UUID) error {
	msg, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if msg == nil {
		return apperr.NotFound("contact message not found")
	}
	return nil
}
