// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleWriter    Role = "writer"
	RoleUser      Role = "user"
)

// User is the directory record for an author. Credentials live with the
// upstream auth service, not here.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	Avatar    *string   `json:"avatar,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStaff returns true for roles allowed to moderate other users' content.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}

// Author returns the denormalized display fields joined into content.
func (u *User) Author() *Author {
	return &Author{
		ID:       u.ID,
		Username: u.Username,
		Nickname: u.Nickname,
		Avatar:   u.Avatar,
		Role:     u.Role,
	}
}

// Author is the subset of a user embedded in flows and posts.
type Author struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Nickname string    `json:"nickname"`
	Avatar   *string   `json:"avatar,omitempty"`
	Role     Role      `json:"role"`
}
