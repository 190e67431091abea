package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"threadline/internal/apperr"
	"threadline/internal/counter"
	"threadline/internal/events"
	"threadline/internal/models"
	"threadline/internal/slug"
	"threadline/internal/store"
	"threadline/internal/users"
)

// CreateFlowInput is the payload for a new flow or reply.
type CreateFlowInput struct {
	Content  string     `json:"content"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// UpdateFlowInput carries optional changes; nil fields are left alone.
type UpdateFlowInput struct {
	Content   *string `json:"content,omitempty"`
	IsDeleted *bool   `json:"is_deleted,omitempty"`
}

// FlowService manages short threaded messages.
type FlowService struct {
	flows   FlowRepository
	dir     *users.Directory
	slugs   *slug.Allocator
	counter *counter.FlowPropagator
	events  *events.Bridge
}

// NewFlowService creates a FlowService.
func NewFlowService(flows FlowRepository, dir *users.Directory, bridge *events.Bridge, slugOpts ...slug.Option) *FlowService {
	return &FlowService{
		flows:   flows,
		dir:     dir,
		slugs:   slug.NewAllocator(flows, slugOpts...),
		counter: counter.NewFlowPropagator(flows),
		events:  bridge,
	}
}

func validateFlowContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if err := checkLength("content", content, 1, MaxFlowContent); err != nil {
		return "", err
	}
	return content, nil
}

// Create stores a new flow. A reply increments its parent's reply count and
// notifies the parent's author unless they replied to themselves.
func (s *FlowService) Create(ctx context.Context, authorID uuid.UUID, in CreateFlowInput) (*models.Flow, error) {
	content, err := validateFlowContent(in.Content)
	if err != nil {
		return nil, err
	}

	author, err := requireActor(ctx, s.dir, authorID)
	if err != nil {
		return nil, err
	}

	var parent *models.Flow
	if in.ParentID != nil {
		parent, err = s.flows.FindByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.IsDeleted {
			return nil, apperr.NotFound("parent flow not found")
		}
	}

	flow, err := createWithSlug(ctx, s.slugs, content, func(sl string) (*models.Flow, error) {
		return s.flows.Create(ctx, &models.Flow{
			Slug:     sl,
			Content:  content,
			AuthorID: author.ID,
			ParentID: in.ParentID,
		})
	})
	if err != nil {
		return nil, err
	}

	if parent != nil {
		if err := s.counter.OnChildCreated(ctx, parent.ID); err != nil {
			slog.Warn("reply count not updated", "parent", parent.ID, "error", err)
		}
		if parent.AuthorID != author.ID {
			s.events.FlowReplied(events.FlowReplied{
				FlowID:          flow.ID,
				FlowSlug:        flow.Slug,
				ParentID:        parent.ID,
				ParentSlug:      parent.Slug,
				ParentExcerpt:   parent.Content,
				ParentOwnerID:   parent.AuthorID,
				ReplierID:       author.ID,
				ReplierUsername: author.Username,
				ReplierNickname: author.Nickname,
			})
		}
	}

	flow.Author = author.Author()
	return flow, nil
}

// List returns live flows, newest first.
func (s *FlowService) List(ctx context.Context, p models.Pagination) (models.Page[models.Flow], error) {
	return s.page(ctx, store.FlowFilter{}, p)
}

// FindBySlug returns a live flow.
func (s *FlowService) FindBySlug(ctx context.Context, slug string) (*models.Flow, error) {
	flow, err := s.findLive(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.attachAuthors(ctx, []*models.Flow{flow}); err != nil {
		return nil, err
	}
	return flow, nil
}

// ListReplies returns the live replies of the flow at parentSlug.
func (s *FlowService) ListReplies(ctx context.Context, parentSlug string, p models.Pagination) (models.Page[models.Flow], error) {
	parent, err := s.findLive(ctx, parentSlug)
	if err != nil {
		return models.Page[models.Flow]{}, err
	}
	return s.page(ctx, store.FlowFilter{ParentID: &parent.ID}, p)
}

// ListByUsername returns a user's live flows.
func (s *FlowService) ListByUsername(ctx context.Context, username string, p models.Pagination) (models.Page[models.Flow], error) {
	u, err := s.dir.GetByUsername(ctx, username)
	if err != nil {
		return models.Page[models.Flow]{}, err
	}
	if u == nil {
		return models.Page[models.Flow]{}, apperr.NotFound("user not found")
	}
	return s.page(ctx, store.FlowFilter{AuthorID: &u.ID}, p)
}

// ListMine returns every flow the actor wrote, deleted ones included.
func (s *FlowService) ListMine(ctx context.Context, actorID uuid.UUID, p models.Pagination) (models.Page[models.Flow], error) {
	return s.page(ctx, store.FlowFilter{AuthorID: &actorID, IncludeDeleted: true}, p)
}

// ListAll returns every flow, deleted ones included. Used by moderators.
func (s *FlowService) ListAll(ctx context.Context, p models.Pagination) (models.Page[models.Flow], error) {
	return s.page(ctx, store.FlowFilter{IncludeDeleted: true}, p)
}

// Update edits or deletes a live flow. Only its author and staff may do so.
// A content change picks a new slug.
func (s *FlowService) Update(ctx context.Context, slug string, actorID uuid.UUID, in UpdateFlowInput) (*models.Flow, error) {
	actor, err := requireActor(ctx, s.dir, actorID)
	if err != nil {
		return nil, err
	}
	flow, err := s.findLive(ctx, slug)
	if err != nil {
		return nil, err
	}
	if flow.AuthorID != actor.ID && !actor.IsStaff() {
		return nil, apperr.Forbidden("you cannot modify this flow")
	}

	if in.Content != nil {
		content, err := validateFlowContent(*in.Content)
		if err != nil {
			return nil, err
		}
		if content != flow.Content {
			updated, err := createWithSlug(ctx, s.slugs, content, func(sl string) (*models.Flow, error) {
				return s.flows.UpdateContent(ctx, flow.ID, content, sl)
			})
			if err != nil {
				return nil, err
			}
			if updated == nil {
				return nil, apperr.NotFound("flow not found")
			}
			flow = updated
		}
	}

	if in.IsDeleted != nil && *in.IsDeleted {
		if err := s.softDelete(ctx, flow.ID); err != nil {
			return nil, err
		}
		reloaded, err := s.flows.FindByID(ctx, flow.ID)
		if err != nil {
			return nil, err
		}
		if reloaded != nil {
			flow = reloaded
		}
	}

	if err := s.attachAuthors(ctx, []*models.Flow{flow}); err != nil {
		return nil, err
	}
	return flow, nil
}

// SoftDelete deletes a live flow on behalf of actorID.
func (s *FlowService) SoftDelete(ctx context.Context, slug string, actorID uuid.UUID) error {
	deleted := true
	_, err := s.Update(ctx, slug, actorID, UpdateFlowInput{IsDeleted: &deleted})
	return err
}

// softDelete flips the flag and decrements the parent only for the call that
// performed the transition.
func (s *FlowService) softDelete(ctx context.Context, id uuid.UUID) error {
	parentID, changed, err := s.flows.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if changed && parentID != nil {
		if err := s.counter.OnChildSoftDeleted(ctx, *parentID); err != nil {
			slog.Warn("reply count not updated", "parent", *parentID, "error", err)
		}
	}
	return nil
}

func (s *FlowService) findLive(ctx context.Context, slug string) (*models.Flow, error) {
	flow, err := s.flows.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if flow == nil || flow.IsDeleted {
		return nil, apperr.NotFound("flow not found")
	}
	return flow, nil
}

func (s *FlowService) page(ctx context.Context, filter store.FlowFilter, p models.Pagination) (models.Page[models.Flow], error) {
	page, err := listPage(ctx, p,
		func(ctx context.Context, limit, offset int) ([]models.Flow, error) {
			return s.flows.List(ctx, filter, limit, offset)
		},
		func(ctx context.Context) (int, error) {
			return s.flows.Count(ctx, filter)
		},
	)
	if err != nil {
		return page, err
	}
	ptrs := make([]*models.Flow, len(page.Data))
	for i := range page.Data {
		ptrs[i] = &page.Data[i]
	}
	if err := s.attachAuthors(ctx, ptrs); err != nil {
		return models.Page[models.Flow]{}, err
	}
	return page, nil
}

func (s *FlowService) attachAuthors(ctx context.Context, flows []*models.Flow) error {
	ids := make([]uuid.UUID, len(flows))
	for i, f := range flows {
		ids[i] = f.AuthorID
	}
	authors, err := s.dir.Authors(ctx, ids)
	if err != nil {
		return err
	}
	for _, f := range flows {
		f.Author = authors[f.AuthorID]
	}
	return nil
}
