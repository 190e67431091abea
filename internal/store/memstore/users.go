package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"threadline/internal/models"
)

// UserStore is the in-memory user directory.
type UserStore struct {
	db *DB
}

// NewUserStore creates a UserStore over db.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Avatar = ptrCopy(u.Avatar)
	return &c
}

// FindByID returns nil if the user does not exist.
func (s *UserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if u, ok := s.db.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

// FindByUsername returns nil if the user does not exist.
func (s *UserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, u := range s.db.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

// FindByIDs returns the users among ids that exist.
func (s *UserStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := s.db.users[id]; ok {
			out = append(out, *copyUser(u))
		}
	}
	return out, nil
}

// List returns a page of users, oldest first.
func (s *UserStore) List(_ context.Context, limit, offset int) ([]models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	all := make([]models.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		all = append(all, *copyUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return paginate(all, limit, offset), nil
}

// Count returns the number of users.
func (s *UserStore) Count(context.Context) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return len(s.db.users), nil
}

// Create inserts a user. Usernames are unique.
func (s *UserStore) Create(_ context.Context, u *models.User) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if existing.Username == u.Username {
			return nil, fmt.Errorf("create user: username %q already exists", u.Username)
		}
	}
	c := copyUser(u)
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Role == "" {
		c.Role = models.RoleUser
	}
	c.CreatedAt = s.db.stamp()
	c.UpdatedAt = c.CreatedAt
	s.db.users[c.ID] = c
	return copyUser(c), nil
}

// Delete removes a user.
func (s *UserStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.users, id)
	return nil
}
