package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"threadline/internal/models"
)

const contactColumns = `id, name, email, subject, message, slug, is_read, created_at, updated_at`

// ContactStore handles contact form submissions.
type ContactStore struct {
	db *sql.DB
}

// NewContactStore creates a new ContactStore with the given database connection.
func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

func scanContact(row scanner) (*models.ContactMessage, error) {
	m := &models.ContactMessage{}
	err := row.Scan(
		&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.Slug,
		&m.IsRead, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

// FindByID retrieves a message by its UUID. Returns nil if not found.
func (s *ContactStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	m, err := scanContact(s.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contact_messages WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find contact by id: %w", err)
	}
	return m, nil
}

// FindBySlug retrieves a message by slug. Returns nil if not found.
func (s *ContactStore) FindBySlug(ctx context.Context, slug string) (*models.ContactMessage, error) {
	m, err := scanContact(s.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contact_messages WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find contact by slug: %w", err)
	}
	return m, nil
}

// SlugExists reports whether any contact message uses slug.
func (s *ContactStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM contact_messages WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check contact slug: %w", err)
	}
	return exists, nil
}

// List returns a page of messages, newest first, optionally unread only.
func (s *ContactStore) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]models.ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+contactColumns+`
		FROM contact_messages
		WHERE NOT ($1 AND is_read)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, unreadOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var msgs []models.ContactMessage
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

// Count returns the number of messages, optionally unread only.
func (s *ContactStore) Count(ctx context.Context, unreadOnly bool) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contact_messages WHERE NOT ($1 AND is_read)`, unreadOnly).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

// Create inserts a message. Returns ErrSlugTaken on a slug collision.
func (s *ContactStore) Create(ctx context.Context, m *models.ContactMessage) (*models.ContactMessage, error) {
	created, err := scanContact(s.db.QueryRowContext(ctx, `
		INSERT INTO contact_messages (name, email, subject, message, slug)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+contactColumns,
		m.Name, m.Email, m.Subject, m.Message, m.Slug))
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return created, nil
}

// MarkRead flags a message as read.
func (s *ContactStore) MarkRead(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE contact_messages SET is_read = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark contact read: %w", err)
	}
	return nil
}

// Delete removes a message by ID.
func (s *ContactStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}
