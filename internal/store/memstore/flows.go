package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"threadline/internal/models"
	"threadline/internal/store"
)

// FlowStore is the in-memory flow table.
type FlowStore struct {
	db *DB
}

// NewFlowStore creates a FlowStore over db.
func NewFlowStore(db *DB) *FlowStore {
	return &FlowStore{db: db}
}

// readFlow copies a stored flow and joins its parent preview.
// Caller holds a lock.
func (db *DB) readFlow(f *models.Flow) *models.Flow {
	c := *f
	c.ParentID = ptrCopy(f.ParentID)
	c.Author = nil
	c.Parent = nil
	if f.ParentID != nil {
		if p, ok := db.flows[*f.ParentID]; ok {
			c.Parent = p.Ref()
		}
	}
	return &c
}

func (db *DB) flowSlugTaken(slug string, except uuid.UUID) bool {
	for id, f := range db.flows {
		if f.Slug == slug && id != except {
			return true
		}
	}
	return false
}

// FindByID returns the flow, deleted or not, or nil.
func (s *FlowStore) FindByID(_ context.Context, id uuid.UUID) (*models.Flow, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if f, ok := s.db.flows[id]; ok {
		return s.db.readFlow(f), nil
	}
	return nil, nil
}

// FindBySlug returns the flow, deleted or not, or nil.
func (s *FlowStore) FindBySlug(_ context.Context, slug string) (*models.Flow, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, f := range s.db.flows {
		if f.Slug == slug {
			return s.db.readFlow(f), nil
		}
	}
	return nil, nil
}

// SlugExists reports whether any flow uses slug.
func (s *FlowStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.db.flowSlugTaken(slug, uuid.Nil), nil
}

func matchFlow(f *models.Flow, filter store.FlowFilter) bool {
	if filter.AuthorID != nil && f.AuthorID != *filter.AuthorID {
		return false
	}
	if filter.ParentID != nil && (f.ParentID == nil || *f.ParentID != *filter.ParentID) {
		return false
	}
	if !filter.IncludeDeleted && f.IsDeleted {
		return false
	}
	return true
}

// List returns matching flows, newest first.
func (s *FlowStore) List(_ context.Context, filter store.FlowFilter, limit, offset int) ([]models.Flow, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var all []models.Flow
	for _, f := range s.db.flows {
		if matchFlow(f, filter) {
			all = append(all, *s.db.readFlow(f))
		}
	}
	newestFirst(all,
		func(f models.Flow) time.Time { return f.CreatedAt },
		func(f models.Flow) uuid.UUID { return f.ID })
	return paginate(all, limit, offset), nil
}

// Count returns the number of matching flows.
func (s *FlowStore) Count(_ context.Context, filter store.FlowFilter) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	n := 0
	for _, f := range s.db.flows {
		if matchFlow(f, filter) {
			n++
		}
	}
	return n, nil
}

// Create inserts a flow. Returns store.ErrSlugTaken on a slug collision.
func (s *FlowStore) Create(_ context.Context, f *models.Flow) (*models.Flow, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.flowSlugTaken(f.Slug, uuid.Nil) {
		return nil, store.ErrSlugTaken
	}
	c := &models.Flow{
		ID:        uuid.New(),
		Slug:      f.Slug,
		Content:   f.Content,
		AuthorID:  f.AuthorID,
		ParentID:  ptrCopy(f.ParentID),
		CreatedAt: s.db.stamp(),
	}
	c.UpdatedAt = c.CreatedAt
	s.db.flows[c.ID] = c
	return s.db.readFlow(c), nil
}

// UpdateContent replaces content and slug. Returns store.ErrSlugTaken on a
// slug collision and nil for an unknown flow.
func (s *FlowStore) UpdateContent(_ context.Context, id uuid.UUID, content, slug string) (*models.Flow, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	f, ok := s.db.flows[id]
	if !ok {
		return nil, nil
	}
	if s.db.flowSlugTaken(slug, id) {
		return nil, store.ErrSlugTaken
	}
	f.Content = content
	f.Slug = slug
	f.UpdatedAt = s.db.now().UTC()
	return s.db.readFlow(f), nil
}

// SoftDelete marks a flow deleted; changed is true only on the transition.
func (s *FlowStore) SoftDelete(_ context.Context, id uuid.UUID) (*uuid.UUID, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	f, ok := s.db.flows[id]
	if !ok || f.IsDeleted {
		return nil, false, nil
	}
	f.IsDeleted = true
	f.UpdatedAt = s.db.now().UTC()
	return ptrCopy(f.ParentID), true, nil
}

// IncrementReplyCount adds delta, clamped at zero. Unknown ids are ignored.
func (s *FlowStore) IncrementReplyCount(_ context.Context, id uuid.UUID, delta int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if f, ok := s.db.flows[id]; ok {
		f.ReplyCount = max(f.ReplyCount+delta, 0)
	}
	return nil
}
