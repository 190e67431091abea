package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"threadline/internal/models"
	"threadline/internal/service"
)

// Flows serves /api/flows.
type Flows struct {
	svc *service.FlowService
}

// NewFlows creates the flow handlers.
func NewFlows(svc *service.FlowService) *Flows {
	return &Flows{svc: svc}
}

// List handles GET /api/flows.
func (h *Flows) List(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.Flow], error) {
		return h.svc.List(r.Context(), p)
	})
}

// Mine handles GET /api/flows/mine.
func (h *Flows) Mine(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.Flow], error) {
		return h.svc.ListMine(r.Context(), actor(r).ID, p)
	})
}

// ByUsername handles GET /api/flows/username/{username}.
func (h *Flows) ByUsername(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.Flow], error) {
		return h.svc.ListByUsername(r.Context(), chi.URLParam(r, "username"), p)
	})
}

// Get handles GET /api/flows/{slug}.
func (h *Flows) Get(w http.ResponseWriter, r *http.Request) {
	flow, err := h.svc.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, flow)
}

// Replies handles GET /api/flows/{slug}/replies.
func (h *Flows) Replies(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(p models.Pagination) (models.Page[models.Flow], error) {
		return h.svc.ListReplies(r.Context(), chi.URLParam(r, "slug"), p)
	})
}

// Create handles POST /api/flows.
func (h *Flows) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateFlowInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	flow, err := h.svc.Create(r.Context(), actor(r).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, flow)
}

// Update handles PATCH /api/flows/{slug}.
func (h *Flows) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateFlowInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	flow, err := h.svc.Update(r.Context(), chi.URLParam(r, "slug"), actor(r).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, flow)
}

// Delete handles DELETE /api/flows/{slug}.
func (h *Flows) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SoftDelete(r.Context(), chi.URLParam(r, "slug"), actor(r).ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
