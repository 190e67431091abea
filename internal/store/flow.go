// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"threadline/internal/models"
)

// flowSelect reads a flow with its parent preview joined.
const flowSelect = `
	SELECT f.id, f.slug, f.content, f.author_id, f.parent_id, f.reply_count,
	       f.is_deleted, f.created_at, f.updated_at,
	       p.id, p.slug, p.content
	FROM flows f
	LEFT JOIN flows p ON p.id = f.parent_id`

// FlowStore handles all flow-related database operations.
type FlowStore struct {
	db *sql.DB
}

// NewFlowStore creates a new FlowStore with the given database connection.
func NewFlowStore(db *sql.DB) *FlowStore {
	return &FlowStore{db: db}
}

func scanFlow(row scanner) (*models.Flow, error) {
	f := &models.Flow{}
	var (
		parentID   uuid.NullUUID
		refID      uuid.NullUUID
		refSlug    sql.NullString
		refContent sql.NullString
	)
	err := row.Scan(
		&f.ID, &f.Slug, &f.Content, &f.AuthorID, &parentID, &f.ReplyCount,
		&f.IsDeleted, &f.CreatedAt, &f.UpdatedAt,
		&refID, &refSlug, &refContent,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		f.ParentID = &parentID.UUID
	}
	if refID.Valid {
		f.Parent = &models.FlowRef{ID: refID.UUID, Slug: refSlug.String, Content: refContent.String}
	}
	return f, nil
}

// FindByID retrieves a flow by its UUID, deleted or not. Returns nil if not found.
func (s *FlowStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Flow, error) {
	f, err := scanFlow(s.db.QueryRowContext(ctx, flowSelect+` WHERE f.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find flow by id: %w", err)
	}
	return f, nil
}

// FindBySlug retrieves a flow by slug, deleted or not. Returns nil if not found.
func (s *FlowStore) FindBySlug(ctx context.Context, slug string) (*models.Flow, error) {
	f, err := scanFlow(s.db.QueryRowContext(ctx, flowSelect+` WHERE f.slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find flow by slug: %w", err)
	}
	return f, nil
}

// SlugExists reports whether any flow, deleted ones included, uses slug.
func (s *FlowStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM flows WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check flow slug: %w", err)
	}
	return exists, nil
}

func flowConditions(f FlowFilter) *conditions {
	c := &conditions{}
	if f.AuthorID != nil {
		c.add("f.author_id = $%d", *f.AuthorID)
	}
	if f.ParentID != nil {
		c.add("f.parent_id = $%d", *f.ParentID)
	}
	if !f.IncludeDeleted {
		c.addRaw("NOT f.is_deleted")
	}
	return c
}

// List returns flows matching the filter, newest first.
func (s *FlowStore) List(ctx context.Context, filter FlowFilter, limit, offset int) ([]models.Flow, error) {
	c := flowConditions(filter)
	query := flowSelect + c.where() + ` ORDER BY f.created_at DESC, f.id DESC` + c.page(limit, offset)

	rows, err := s.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var flows []models.Flow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		flows = append(flows, *f)
	}
	return flows, rows.Err()
}

// Count returns the number of flows matching the filter.
func (s *FlowStore) Count(ctx context.Context, filter FlowFilter) (int, error) {
	c := flowConditions(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flows f`+c.where(), c.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count flows: %w", err)
	}
	return n, nil
}

// Create inserts a flow and returns it with the parent joined. Returns
// ErrSlugTaken on a slug collision.
func (s *FlowStore) Create(ctx context.Context, f *models.Flow) (*models.Flow, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO flows (slug, content, author_id, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, f.Slug, f.Content, f.AuthorID, f.ParentID).Scan(&id)
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create flow: %w", err)
	}
	return s.FindByID(ctx, id)
}

// UpdateContent replaces a flow's content and slug. Returns ErrSlugTaken on
// a slug collision.
func (s *FlowStore) UpdateContent(ctx context.Context, id uuid.UUID, content, slug string) (*models.Flow, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE flows SET content = $1, slug = $2, updated_at = NOW()
		WHERE id = $3
	`, content, slug, id)
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("update flow content: %w", err)
	}
	return s.FindByID(ctx, id)
}

// SoftDelete marks a flow deleted. changed is true only for the call that
// performed the not-deleted to deleted transition; parentID is the flow's
// parent in that case.
func (s *FlowStore) SoftDelete(ctx context.Context, id uuid.UUID) (parentID *uuid.UUID, changed bool, err error) {
	var parent uuid.NullUUID
	err = s.db.QueryRowContext(ctx, `
		UPDATE flows SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING parent_id
	`, id).Scan(&parent)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("soft delete flow: %w", err)
	}
	if parent.Valid {
		parentID = &parent.UUID
	}
	return parentID, true, nil
}

// IncrementReplyCount adds delta to a flow's reply count in one statement.
// A missing flow is not an error. The count never drops below zero.
func (s *FlowStore) IncrementReplyCount(ctx context.Context, id uuid.UUID, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE flows SET reply_count = GREATEST(reply_count + $1, 0)
		WHERE id = $2
	`, delta, id)
	if err != nil {
		return fmt.Errorf("increment reply count: %w", err)
	}
	return nil
}
