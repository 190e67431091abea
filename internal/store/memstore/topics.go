package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"threadline/internal/models"
	"threadline/internal/store"
)

// TopicStore is the in-memory topic table.
type TopicStore struct {
	db *DB
}

// NewTopicStore creates a TopicStore over db.
func NewTopicStore(db *DB) *TopicStore {
	return &TopicStore{db: db}
}

func copyTopic(t *models.Topic) *models.Topic {
	c := *t
	c.TagID = ptrCopy(t.TagID)
	c.LastPostAt = ptrCopy(t.LastPostAt)
	return &c
}

// FindByID returns nil if the topic does not exist.
func (s *TopicStore) FindByID(_ context.Context, id uuid.UUID) (*models.Topic, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if t, ok := s.db.topics[id]; ok {
		return copyTopic(t), nil
	}
	return nil, nil
}

// List returns a page of topics, newest first.
func (s *TopicStore) List(_ context.Context, limit, offset int) ([]models.Topic, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	all := make([]models.Topic, 0, len(s.db.topics))
	for _, t := range s.db.topics {
		all = append(all, *copyTopic(t))
	}
	newestFirst(all,
		func(t models.Topic) time.Time { return t.CreatedAt },
		func(t models.Topic) uuid.UUID { return t.ID })
	return paginate(all, limit, offset), nil
}

// Count returns the number of topics.
func (s *TopicStore) Count(context.Context) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return len(s.db.topics), nil
}

// Create inserts a topic. Returns store.ErrSlugTaken on a slug collision.
func (s *TopicStore) Create(_ context.Context, t *models.Topic) (*models.Topic, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.topics {
		if existing.Slug == t.Slug {
			return nil, store.ErrSlugTaken
		}
	}
	c := copyTopic(t)
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = s.db.stamp()
	c.UpdatedAt = c.CreatedAt
	s.db.topics[c.ID] = c
	return copyTopic(c), nil
}

// SetTitle renames a topic, keeping its slug.
func (s *TopicStore) SetTitle(_ context.Context, id uuid.UUID, title string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if t, ok := s.db.topics[id]; ok {
		t.Title = title
		t.UpdatedAt = s.db.now().UTC()
	}
	return nil
}

// SetStatus activates or deactivates a topic.
func (s *TopicStore) SetStatus(_ context.Context, id uuid.UUID, active bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if t, ok := s.db.topics[id]; ok {
		t.Status = active
		t.UpdatedAt = s.db.now().UTC()
	}
	return nil
}

// Delete removes a topic and its posts.
func (s *TopicStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.topics, id)
	for pid, p := range s.db.posts {
		if p.TopicID == id {
			s.db.deletePostLocked(pid)
		}
	}
	return nil
}

// CountPublishedPosts counts the published posts of a topic, replies included.
func (s *TopicStore) CountPublishedPosts(_ context.Context, topicID uuid.UUID) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	n := 0
	for _, p := range s.db.posts {
		if p.TopicID == topicID && p.Status {
			n++
		}
	}
	return n, nil
}

// SetStats stores the post count and, when non-nil, the latest post time.
func (s *TopicStore) SetStats(_ context.Context, id uuid.UUID, postCount int, lastPostAt *time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if t, ok := s.db.topics[id]; ok {
		t.PostCount = postCount
		if lastPostAt != nil {
			t.LastPostAt = ptrCopy(lastPostAt)
		}
	}
	return nil
}
