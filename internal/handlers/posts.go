// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"threadline/internal/middleware"
	"threadline/internal/models"
	"threadline/internal/service"
)

// Posts serves /api/posts.
type Posts struct {
	svc *service.PostService
}

// NewPosts creates the post handlers.
func NewPosts(svc *service.PostService) *Posts {
	return &Posts{svc: svc}
}

// List handles GET /api/posts.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.Post], error) {
		return h.svc.List(r.Context(), p)
	})
}

// Trending handles GET /api/posts/trending.
func (h *Posts) Trending(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.Post], error) {
		return h.svc.ListTrending(r.Context(), p)
	})
}

// Mine handles GET /api/posts/mine.
func (h *Posts) Mine(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.Post], error) {
		return h.svc.ListMine(r.Context(), actor(r).ID, p)
	})
}

// ByUsername handles GET /api/posts/user/{username}.
func (h *Posts) ByUsername(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.Post], error) {
		return h.svc.ListByUsername(r.Context(), chi.URLParam(r, "username"), p)
	})
}

// ByTopic handles GET /api/posts/topic/{topicID}.
func (h *Posts) ByTopic(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "topicID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	servePage(w, r, func(p models.Pagination) (models.Page[models.Post], error) {
		return h.svc.ListByTopic(r.Context(), id, p)
	})
}

// Replies handles GET /api/posts/{id}/replies.
func (h *Posts) Replies(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	servePage(w, r, func(p models.Pagination) (models.Page[models.Post], error) {
		return h.svc.ListReplies(r.Context(), id, p)
	})
}

// BySlug handles GET /api/posts/slug/{slug}. A successful read counts as a
// view of the client's IP, at most once per dedup window.
func (h *Posts) BySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.FindBySlug(r.Context(), chi.URLParam(r, "slug"), viewerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.svc.IncrementView(r.Context(), post.ID, middleware.ClientIP(r))
	writeData(w, http.StatusOK, post)
}

// Create handles POST /api/posts.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreatePostInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	post, err := h.svc.Create(r.Context(), actor(r).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, post)
}

// Update handles PATCH /api/posts/{id}.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.UpdatePostInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	post, err := h.svc.Update(r.Context(), id, actor(r).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, post)
}

// Scores handles PUT /api/posts/{id}/scores.
func (h *Posts) Scores(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.ScoresInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.UpdateScores(r.Context(), id, in); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
