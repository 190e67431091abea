// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"threadline/internal/models"
)

// postSelect reads a post with its topic and parent previews joined.
const postSelect = `
	SELECT p.id, p.title, p.slug, p.content, p.main_image, p.user_id, p.topic_id,
	       p.parent_id, p.status, p.view_count, p.post_count, p.last_post_at,
	       p.reading_time, p.upvotes, p.downvotes, p.score, p.created_at, p.updated_at,
	       t.id, t.title, t.slug, t.tag_id,
	       pp.id, pp.title, pp.slug
	FROM posts p
	JOIN topics t ON t.id = p.topic_id
	LEFT JOIN posts pp ON pp.id = p.parent_id`

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

func scanPost(row scanner) (*models.Post, error) {
	p := &models.Post{}
	topic := &models.TopicRef{}
	var (
		parentID uuid.NullUUID
		tagID    uuid.NullUUID
		refID    uuid.NullUUID
		refTitle sql.NullString
		refSlug  sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.MainImage, &p.UserID, &p.TopicID,
		&parentID, &p.Status, &p.ViewCount, &p.PostCount, &p.LastPostAt,
		&p.ReadingTime, &p.Upvotes, &p.Downvotes, &p.Score, &p.CreatedAt, &p.UpdatedAt,
		&topic.ID, &topic.Title, &topic.Slug, &tagID,
		&refID, &refTitle, &refSlug,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		p.ParentID = &parentID.UUID
	}
	if tagID.Valid {
		topic.TagID = &tagID.UUID
	}
	p.Topic = topic
	if refID.Valid {
		p.Parent = &models.PostRef{ID: refID.UUID, Title: refTitle.String, Slug: refSlug.String}
	}
	return p, nil
}

// FindByID retrieves a post by its UUID. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by slug regardless of status. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE p.slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// SlugExists reports whether any post uses slug.
func (s *PostStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return exists, nil
}

func postConditions(f PostFilter) *conditions {
	c := &conditions{}
	if f.UserID != nil {
		c.add("p.user_id = $%d", *f.UserID)
	}
	if f.TopicID != nil {
		c.add("p.topic_id = $%d", *f.TopicID)
	}
	if f.ParentID != nil {
		c.add("p.parent_id = $%d", *f.ParentID)
	}
	if f.RootOnly {
		c.addRaw("p.parent_id IS NULL")
	}
	if f.Public {
		c.addRaw("p.status AND t.status")
	}
	return c
}

func postOrder(sort PostSort) string {
	if sort == SortViews {
		return ` ORDER BY p.view_count DESC, p.created_at DESC, p.id DESC`
	}
	return ` ORDER BY p.created_at DESC, p.id DESC`
}

// List returns posts matching the filter in the filter's order.
func (s *PostStore) List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error) {
	c := postConditions(filter)
	query := postSelect + c.where() + postOrder(filter.Sort) + c.page(limit, offset)

	rows, err := s.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// Count returns the number of posts matching the filter.
func (s *PostStore) Count(ctx context.Context, filter PostFilter) (int, error) {
	c := postConditions(filter)
	query := `SELECT COUNT(*) FROM posts p JOIN topics t ON t.id = p.topic_id` + c.where()
	var n int
	if err := s.db.QueryRowContext(ctx, query, c.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// Create inserts a post and returns it with its joins. Returns ErrSlugTaken
// on a slug collision.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, content, main_image, user_id, topic_id,
		                   parent_id, status, reading_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, p.Title, p.Slug, p.Content, p.MainImage, p.UserID, p.TopicID,
		p.ParentID, p.Status, p.ReadingTime,
	).Scan(&id)
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Update writes the editable fields of p. Ownership fields and counters are
// left alone. Returns ErrSlugTaken on a slug collision.
func (s *PostStore) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, content = $3, main_image = $4,
			status = $5, reading_time = $6, updated_at = NOW()
		WHERE id = $7
	`, p.Title, p.Slug, p.Content, p.MainImage, p.Status, p.ReadingTime, p.ID)
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return s.FindByID(ctx, p.ID)
}

// IncrementViewCount adds one view in a single statement.
func (s *PostStore) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE posts SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	return nil
}

// UpdateScores stores the externally computed vote tally.
func (s *PostStore) UpdateScores(ctx context.Context, id uuid.UUID, score, upvotes, downvotes *int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE posts SET score = $1, upvotes = $2, downvotes = $3
		WHERE id = $4
	`, score, upvotes, downvotes, id)
	if err != nil {
		return fmt.Errorf("update post scores: %w", err)
	}
	return nil
}

// Delete removes a post. Replies keep existing and lose their parent link.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// CountPublishedChildren counts the published direct replies of a post.
func (s *PostStore) CountPublishedChildren(ctx context.Context, parentID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE parent_id = $1 AND status`, parentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count post replies: %w", err)
	}
	return n, nil
}

// SetStats stores a post's reply count and, when lastPostAt is non-nil, the
// time of its latest reply.
func (s *PostStore) SetStats(ctx context.Context, id uuid.UUID, postCount int, lastPostAt *time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE posts SET post_count = $1, last_post_at = COALESCE($2, last_post_at)
		WHERE id = $3
	`, postCount, lastPostAt, id)
	if err != nil {
		return fmt.Errorf("set post stats: %w", err)
	}
	return nil
}
