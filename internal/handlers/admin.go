// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"threadline/internal/models"
	"threadline/internal/service"
)

// Admin serves /api/admin. Every route runs behind middleware.RequireStaff.
type Admin struct {
	svc      *service.AdminService
	contacts *service.ContactService
}

// NewAdmin creates the moderation handlers.
func NewAdmin(svc *service.AdminService, contacts *service.ContactService) *Admin {
	return &Admin{svc: svc, contacts: contacts}
}

// withID parses the {id} parameter and runs fn, answering 204 on success.
func withID(w http.ResponseWriter, r *http.Request, fn func(id uuid.UUID) error) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := fn(id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostsList handles GET /api/admin/posts.
func (h *Admin) PostsList(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.Post], error) {
		return h.svc.ListPosts(r.Context(), p)
	})
}

// PostGet handles GET /api/admin/posts/{id}.
func (h *Admin) PostGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	post, err := h.svc.FindPost(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, post)
}

// PostUpdate handles PATCH /api/admin/posts/{id}.
func (h *Admin) PostUpdate(w http.ResponseWriter, r *http.Request) {
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
	post, err := h.svc.UpdatePost(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, post)
}

// PostDelete handles DELETE /api/admin/posts/{id}.
func (h *Admin) PostDelete(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id uuid.UUID) error { return h.svc.DeletePost(r.Context(), id) })
}

// TopicsList handles GET /api/admin/topics.
func (h *Admin) TopicsList(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.Topic], error) {
		return h.svc.ListTopics(r.Context(), p)
	})
}

// TopicUpdate handles PATCH /api/admin/topics/{id}.
func (h *Admin) TopicUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.UpdateTopicInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	topic, err := h.svc.UpdateTopic(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, topic)
}

// TopicDelete handles DELETE /api/admin/topics/{id}.
func (h *Admin) TopicDelete(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id uuid.UUID) error { return h.svc.DeleteTopic(r.Context(), id) })
}

// FlowsList handles GET /api/admin/flows.
func (h *Admin) FlowsList(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.Flow], error) {
		return h.svc.ListFlows(r.Context(), p)
	})
}

// ContactsList handles GET /api/admin/contacts.
func (h *Admin) ContactsList(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.ContactMessage], error) {
		return h.svc.ListContacts(r.Context(), p)
	})
}

// ContactsUnread handles GET /api/admin/contacts/unread.
func (h *Admin) ContactsUnread(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.ContactMessage], error) {
		return h.contacts.ListUnread(r.Context(), p)
	})
}

// ContactUnread handles GET /api/admin/contacts/unread/{slug}. It does not
// mark the message read.
func (h *Admin) ContactUnread(w http.ResponseWriter, r *http.Request) {
	msg, err := h.contacts.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, msg)
}

// ContactGet handles GET /api/admin/contacts/slug/{slug} and marks the message
// read.
func (h *Admin) ContactGet(w http.ResponseWriter, r *http.Request) {
	msg, err := h.svc.FindContact(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, msg)
}

// ContactMarkRead handles POST /api/admin/contacts/{id}/read.
func (h *Admin) ContactMarkRead(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id uuid.UUID) error { return h.contacts.MarkRead(r.Context(), id) })
}

// ContactDelete handles DELETE /api/admin/contacts/{id}.
func (h *Admin) ContactDelete(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id uuid.UUID) error { return h.svc.DeleteContact(r.Context(), id) })
}

// UsersList handles GET /api/admin/users.
func (h *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.User], error) {
		return h.svc.ListUsers(r.Context(), p)
	})
}

// UserGet handles GET /api/admin/users/{id}.
func (h *Admin) UserGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.svc.FindUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}
