package models

import (
	"testing"

	"github.com/google/uuid"
)

// TestUserRoles verifies the admin and staff predicates for every role.
func TestUserRoles(t *testing.T) {
	tests := []struct {
		name      string
		role      Role
		wantAdmin bool
		wantStaff bool
	}{
		{name: "admin role", role: RoleAdmin, wantAdmin: true, wantStaff: true},
		{name: "moderator role", role: RoleModerator, wantAdmin: false, wantStaff: true},
		{name: "writer role", role: RoleWriter, wantAdmin: false, wantStaff: false},
		{name: "user role", role: RoleUser, wantAdmin: false, wantStaff: false},
		{name: "empty role", role: Role(""), wantAdmin: false, wantStaff: false},
		{name: "uppercase ADMIN", role: Role("ADMIN"), wantAdmin: false, wantStaff: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role}
			if got := u.IsAdmin(); got != tt.wantAdmin {
				t.Errorf("User{Role: %q}.IsAdmin() = %v, want %v", tt.role, got, tt.wantAdmin)
			}
			if got := u.IsStaff(); got != tt.wantStaff {
				t.Errorf("User{Role: %q}.IsStaff() = %v, want %v", tt.role, got, tt.wantStaff)
			}
		})
	}
}

func TestUserAuthor(t *testing.T) {
	avatar := "/avatars/ada.webp"
	u := &User{
		ID:       uuid.New(),
		Username: "ada",
		Nickname: "Ada L.",
		Avatar:   &avatar,
		Role:     RoleWriter,
	}

	a := u.Author()
	if a.ID != u.ID || a.Username != "ada" || a.Nickname != "Ada L." || a.Role != RoleWriter {
		t.Errorf("unexpected author %+v", a)
	}
	if a.Avatar == nil || *a.Avatar != avatar {
		t.Errorf("avatar: got %v, want %q", a.Avatar, avatar)
	}
}
