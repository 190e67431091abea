package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"threadline/internal/models"
	"threadline/internal/store"
)

// ContactStore is the in-memory contact message table.
type ContactStore struct {
	db *DB
}

// NewContactStore creates a ContactStore over db.
func NewContactStore(db *DB) *ContactStore {
	return &ContactStore{db: db}
}

func copyContact(m *models.ContactMessage) *models.ContactMessage {
	c := *m
	return &c
}

// FindByID returns the message or nil.
func (s *ContactStore) FindByID(_ context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if m, ok := s.db.contacts[id]; ok {
		return copyContact(m), nil
	}
	return nil, nil
}

// FindBySlug returns the message or nil.
func (s *ContactStore) FindBySlug(_ context.Context, slug string) (*models.ContactMessage, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, m := range s.db.contacts {
		if m.Slug == slug {
			return copyContact(m), nil
		}
	}
	return nil, nil
}

// SlugExists reports whether any message uses slug.
func (s *ContactStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, m := range s.db.contacts {
		if m.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// List returns a page of messages, newest first.
func (s *ContactStore) List(_ context.Context, unreadOnly bool, limit, offset int) ([]models.ContactMessage, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var all []models.ContactMessage
	for _, m := range s.db.contacts {
		if unreadOnly && m.IsRead {
			continue
		}
		all = append(all, *m)
	}
	newestFirst(all,
		func(m models.ContactMessage) time.Time { return m.CreatedAt },
		func(m models.ContactMessage) uuid.UUID { return m.ID })
	return paginate(all, limit, offset), nil
}

// Count returns the number of messages.
func (s *ContactStore) Count(_ context.Context, unreadOnly bool) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	n := 0
	for _, m := range s.db.contacts {
		if !unreadOnly || !m.IsRead {
			n++
		}
	}
	return n, nil
}

// Create inserts a message. Returns store.ErrSlugTaken on a slug collision.
func (s *ContactStore) Create(_ context.Context, m *models.ContactMessage) (*models.ContactMessage, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.contacts {
		if existing.Slug == m.Slug {
			return nil, store.ErrSlugTaken
		}
	}
	c := copyContact(m)
	c.ID = uuid.New()
	c.IsRead = false
	c.CreatedAt = s.db.stamp()
	c.UpdatedAt = c.CreatedAt
	s.db.contacts[c.ID] = c
	return copyContact(c), nil
}

// MarkRead flags a message as read.
func (s *ContactStore) MarkRead(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if m, ok := s.db.contacts[id]; ok {
		m.IsRead = true
		m.UpdatedAt = s.db.now().UTC()
	}
	return nil
}

// Delete removes a message.
func (s *ContactStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.contacts, id)
	return nil
}
