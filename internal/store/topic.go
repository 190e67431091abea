package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"threadline/internal/models"
)

const topicColumns = `id, title, slug, tag_id, user_id, status, post_count, last_post_at, created_at, updated_at`

// TopicStore handles topic rows and their denormalized post statistics.
type TopicStore struct {
	db *sql.DB
}

// NewTopicStore creates a new TopicStore with the given database connection.
func NewTopicStore(db *sql.DB) *TopicStore {
	return &TopicStore{db: db}
}

func scanTopic(row scanner) (*models.Topic, error) {
	t := &models.Topic{}
	var tagID uuid.NullUUID
	err := row.Scan(
		&t.ID, &t.Title, &t.Slug, &tagID, &t.UserID, &t.Status,
		&t.PostCount, &t.LastPostAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if tagID.Valid {
		t.TagID = &tagID.UUID
	}
	return t, err
}

// FindByID retrieves a topic by its UUID. Returns nil if not found.
func (s *TopicStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	t, err := scanTopic(s.db.QueryRowContext(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find topic by id: %w", err)
	}
	return t, nil
}

// List returns a page of topics, newest first.
func (s *TopicStore) List(ctx context.Context, limit, offset int) ([]models.Topic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+topicColumns+`
		FROM topics ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, *t)
	}
	return topics, rows.Err()
}

// Count returns the total number of topics.
func (s *TopicStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count topics: %w", err)
	}
	return n, nil
}

// Create inserts a topic. Returns ErrSlugTaken on a slug collision.
func (s *TopicStore) Create(ctx context.Context, t *models.Topic) (*models.Topic, error) {
	created, err := scanTopic(s.db.QueryRowContext(ctx, `
		INSERT INTO topics (title, slug, tag_id, user_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+topicColumns,
		t.Title, t.Slug, t.TagID, t.UserID, t.Status))
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create topic: %w", err)
	}
	return created, nil
}

// SetTitle renames a topic. The slug is left unchanged.
func (s *TopicStore) SetTitle(ctx context.Context, id uuid.UUID, title string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE topics SET title = $1, updated_at = NOW() WHERE id = $2`, title, id)
	if err != nil {
		return fmt.Errorf("set topic title: %w", err)
	}
	return nil
}

// SetStatus activates or deactivates a topic.
func (s *TopicStore) SetStatus(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE topics SET status = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set topic status: %w", err)
	}
	return nil
}

// Delete removes a topic. Its posts go with it.
func (s *TopicStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	return nil
}

// CountPublishedPosts counts the published posts of a topic, replies included.
func (s *TopicStore) CountPublishedPosts(ctx context.Context, topicID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE topic_id = $1 AND status`, topicID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count topic posts: %w", err)
	}
	return n, nil
}

// SetStats stores the post count and, when lastPostAt is non-nil, the time
// of the latest post.
func (s *TopicStore) SetStats(ctx context.Context, id uuid.UUID, postCount int, lastPostAt *time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE topics SET post_count = $1, last_post_at = COALESCE($2, last_post_at)
		WHERE id = $3
	`, postCount, lastPostAt, id)
	if err != nil {
		return fmt.Errorf("set topic stats: %w", err)
	}
	return nil
}
