// Package router sets up the HTTP routes and middleware chains of the
// threadline API. Read routes are public; writes need an identified user
// and moderation routes need staff.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"threadline/internal/handlers"
	"threadline/internal/middleware"
	"threadline/internal/users"
)

// Handlers groups the route handlers.
type Handlers struct {
	Flows   *handlers.Flows
	Posts   *handlers.Posts
	Contact *handlers.Contact
	Admin   *handlers.Admin
}

// New creates the configured Chi router. limiter budgets the write routes
// that anonymous clients can reach or spam cheaply.
func New(dir *users.Directory, limiter middleware.Limiter, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(dir.Middleware)
		r.Use(middleware.Identify(dir))

		limited := middleware.RateLimit(limiter, middleware.ByUserOrIP)

		r.Route("/flows", func(r chi.Router) {
			r.Get("/", h.Flows.List)
			r.Get("/username/{username}", h.Flows.ByUsername)
			r.Get("/{slug}", h.Flows.Get)
			r.Get("/{slug}/replies", h.Flows.Replies)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Get("/mine", h.Flows.Mine)
				r.With(limited).Post("/", h.Flows.Create)
				r.Patch("/{slug}", h.Flows.Update)
				r.Delete("/{slug}", h.Flows.Delete)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.Posts.List)
			r.Get("/trending", h.Posts.Trending)
			r.Get("/user/{username}", h.Posts.ByUsername)
			r.Get("/topic/{topicID}", h.Posts.ByTopic)
			r.Get("/slug/{slug}", h.Posts.BySlug)
			r.Get("/{id}/replies", h.Posts.Replies)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Get("/mine", h.Posts.Mine)
				r.With(limited).Post("/", h.Posts.Create)
				r.Patch("/{id}", h.Posts.Update)
			})

			r.With(middleware.RequireAdmin).Put("/{id}/scores", h.Posts.Scores)
		})

		r.With(limited).Post("/contact", h.Contact.Submit)

		// Moderation, admins and moderators only.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireStaff)

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", h.Admin.PostsList)
				r.Get("/{id}", h.Admin.PostGet)
				r.Patch("/{id}", h.Admin.PostUpdate)
				r.Delete("/{id}", h.Admin.PostDelete)
			})

			r.Get("/topics", h.Admin.TopicsList)
			r.Patch("/topics/{id}", h.Admin.TopicUpdate)
			r.Delete("/topics/{id}", h.Admin.TopicDelete)

			r.Get("/flows", h.Admin.FlowsList)

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", h.Admin.ContactsList)
				r.Get("/unread", h.Admin.ContactsUnread)
				r.Get("/unread/{slug}", h.Admin.ContactUnread)
				r.Get("/slug/{slug}", h.Admin.ContactGet)
				r.Post("/{id}/read", h.Admin.ContactMarkRead)
				r.Delete("/{id}", h.Admin.ContactDelete)
			})

			r.Get("/users", h.Admin.UsersList)
			r.Get("/users/{id}", h.Admin.UserGet)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
