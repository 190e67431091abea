package handlers

import (
	"net/http"

	"threadline/internal/service"
)

// Contact serves the public contact form.
type Contact struct {
	svc *service.ContactService
}

// NewContact creates the contact handler.
func NewContact(svc *service.ContactService) *Contact {
	return &Contact{svc: svc}
}

// Submit handles POST /api/contact.
func (h *Contact) Submit(w http.ResponseWriter, r *http.Request) {
	var in service.ContactInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, msg)
}
