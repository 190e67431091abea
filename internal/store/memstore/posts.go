package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"threadline/internal/models"
	"threadline/internal/store"
)

// PostStore is the in-memory post table.
type PostStore struct {
	db *DB
}

// NewPostStore creates a PostStore over db.
func NewPostStore(db *DB) *PostStore {
	return &PostStore{db: db}
}

// readPost copies a stored post and joins its topic and parent previews.
// Caller holds a lock.
func (db *DB) readPost(p *models.Post) *models.Post {
	c := *p
	c.MainImage = ptrCopy(p.MainImage)
	c.ParentID = ptrCopy(p.ParentID)
	c.LastPostAt = ptrCopy(p.LastPostAt)
	c.Upvotes = ptrCopy(p.Upvotes)
	c.Downvotes = ptrCopy(p.Downvotes)
	c.Score = ptrCopy(p.Score)
	c.Author = nil
	c.Topic = nil
	c.Parent = nil
	if t, ok := db.topics[p.TopicID]; ok {
		c.Topic = t.Ref()
	}
	if p.ParentID != nil {
		if parent, ok := db.posts[*p.ParentID]; ok {
			c.Parent = parent.Ref()
		}
	}
	return &c
}

func (db *DB) postSlugTaken(slug string, except uuid.UUID) bool {
	for id, p := range db.posts {
		if p.Slug == slug && id != except {
			return true
		}
	}
	return false
}

// deletePostLocked removes a post and detaches its replies.
// Caller holds the write lock.
func (db *DB) deletePostLocked(id uuid.UUID) {
	delete(db.posts, id)
	for _, p := range db.posts {
		if p.ParentID != nil && *p.ParentID == id {
			p.ParentID = nil
		}
	}
}

func (db *DB) matchPost(p *models.Post, f store.PostFilter) bool {
	if f.UserID != nil && p.UserID != *f.UserID {
		return false
	}
	if f.TopicID != nil && p.TopicID != *f.TopicID {
		return false
	}
	if f.ParentID != nil && (p.ParentID == nil || *p.ParentID != *f.ParentID) {
		return false
	}
	if f.RootOnly && p.ParentID != nil {
		return false
	}
	if f.Public {
		t, ok := db.topics[p.TopicID]
		if !p.Status || !ok || !t.Status {
			return false
		}
	}
	return true
}

// FindByID returns the post or nil.
func (s *PostStore) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if p, ok := s.db.posts[id]; ok {
		return s.db.readPost(p), nil
	}
	return nil, nil
}

// FindBySlug returns the post regardless of status, or nil.
func (s *PostStore) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, p := range s.db.posts {
		if p.Slug == slug {
			return s.db.readPost(p), nil
		}
	}
	return nil, nil
}

// SlugExists reports whether any post uses slug.
func (s *PostStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.db.postSlugTaken(slug, uuid.Nil), nil
}

// List returns matching posts in the filter's order.
func (s *PostStore) List(_ context.Context, filter store.PostFilter, limit, offset int) ([]models.Post, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var all []models.Post
	for _, p := range s.db.posts {
		if s.db.matchPost(p, filter) {
			all = append(all, *s.db.readPost(p))
		}
	}
	newestFirst(all,
		func(p models.Post) time.Time { return p.CreatedAt },
		func(p models.Post) uuid.UUID { return p.ID })
	if filter.Sort == store.SortViews {
		sortByViews(all)
	}
	return paginate(all, limit, offset), nil
}

// sortByViews orders by view count descending, keeping the newest-first
// order among equal counts.
func sortByViews(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].ViewCount > posts[j].ViewCount
	})
}

// Count returns the number of matching posts.
func (s *PostStore) Count(_ context.Context, filter store.PostFilter) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	n := 0
	for _, p := range s.db.posts {
		if s.db.matchPost(p, filter) {
			n++
		}
	}
	return n, nil
}

// Create inserts a post. Returns store.ErrSlugTaken on a slug collision.
func (s *PostStore) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.postSlugTaken(p.Slug, uuid.Nil) {
		return nil, store.ErrSlugTaken
	}
	c := &models.Post{
		ID:          uuid.New(),
		Title:       p.Title,
		Slug:        p.Slug,
		Content:     p.Content,
		MainImage:   ptrCopy(p.MainImage),
		UserID:      p.UserID,
		TopicID:     p.TopicID,
		ParentID:    ptrCopy(p.ParentID),
		Status:      p.Status,
		ReadingTime: p.ReadingTime,
		CreatedAt:   s.db.stamp(),
	}
	c.UpdatedAt = c.CreatedAt
	s.db.posts[c.ID] = c
	return s.db.readPost(c), nil
}

// Update writes the editable fields. Returns store.ErrSlugTaken on a slug
// collision and nil for an unknown post.
func (s *PostStore) Update(_ context.Context, p *models.Post) (*models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	existing, ok := s.db.posts[p.ID]
	if !ok {
		return nil, nil
	}
	if s.db.postSlugTaken(p.Slug, p.ID) {
		return nil, store.ErrSlugTaken
	}
	existing.Title = p.Title
	existing.Slug = p.Slug
	existing.Content = p.Content
	existing.MainImage = ptrCopy(p.MainImage)
	existing.Status = p.Status
	existing.ReadingTime = p.ReadingTime
	existing.UpdatedAt = s.db.now().UTC()
	return s.db.readPost(existing), nil
}

// IncrementViewCount adds one view.
func (s *PostStore) IncrementViewCount(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p, ok := s.db.posts[id]; ok {
		p.ViewCount++
	}
	return nil
}

// UpdateScores stores the external vote tally.
func (s *PostStore) UpdateScores(_ context.Context, id uuid.UUID, score, upvotes, downvotes *int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p, ok := s.db.posts[id]; ok {
		p.Score = ptrCopy(score)
		p.Upvotes = ptrCopy(upvotes)
		p.Downvotes = ptrCopy(downvotes)
	}
	return nil
}

// Delete removes a post; its replies lose their parent link.
func (s *PostStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.deletePostLocked(id)
	return nil
}

// CountPublishedChildren counts published direct replies.
func (s *PostStore) CountPublishedChildren(_ context.Context, parentID uuid.UUID) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	n := 0
	for _, p := range s.db.posts {
		if p.ParentID != nil && *p.ParentID == parentID && p.Status {
			n++
		}
	}
	return n, nil
}

// SetStats stores the reply count and, when non-nil, the latest reply time.
func (s *PostStore) SetStats(_ context.Context, id uuid.UUID, postCount int, lastPostAt *time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p, ok := s.db.posts[id]; ok {
		p.PostCount = postCount
		if lastPostAt != nil {
			p.LastPostAt = ptrCopy(lastPostAt)
		}
	}
	return nil
}
