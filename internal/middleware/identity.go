// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"threadline/internal/apperr"
	"threadline/internal/models"
)

// UserIDHeader carries the authenticated user's id, set by the upstream
// auth gateway.
const UserIDHeader = "X-User-ID"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	userKey   contextKey = "user"
	holderKey contextKey = "identity-holder"
)

// UserResolver looks users up by id. It returns nil for unknown ids.
type UserResolver interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type identityHolder struct {
	user *models.User
}

func withHolder(ctx context.Context, h *identityHolder) context.Context {
	return context.WithValue(ctx, holderKey, h)
}

// WithUser returns ctx carrying u as the acting user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	if h, ok := ctx.Value(holderKey).(*identityHolder); ok {
		h.user = u
	}
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx returns the acting user, or nil for anonymous requests.
func UserFromCtx(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// Identify resolves UserIDHeader into the request context. Requests without
// the header continue anonymously; a malformed or unknown id is rejected.
func Identify(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, apperr.CodeUnauthenticated, "invalid user id")
				return
			}
			u, err := users.Get(r.Context(), id)
			if err != nil {
				slog.Error("resolve user", "user_id", id, "error", err)
				writeError(w, apperr.CodeInternal, "internal error")
				return
			}
			if u == nil {
				writeError(w, apperr.CodeUnauthenticated, "unknown user")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) == nil {
			writeError(w, apperr.CodeUnauthenticated, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff allows admins and moderators. Must run after Identify.
func RequireStaff(next http.Handler) http.Handler {
	return requireRole(next, (*models.User).IsStaff)
}

// RequireAdmin allows admins only. Must run after Identify.
func RequireAdmin(next http.Handler) http.Handler {
	return requireRole(next, (*models.User).IsAdmin)
}

func requireRole(next http.Handler, allowed func(*models.User) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromCtx(r.Context())
		if u == nil {
			writeError(w, apperr.CodeUnauthenticated, "authentication required")
			return
		}
		if !allowed(u) {
			writeError(w, apperr.CodeForbidden, "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}
