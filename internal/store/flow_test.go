package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"threadline/internal/models"
)

func TestFlowStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewFlowStore(db)
	ctx := context.Background()
	author := testUser(t, db)

	root, err := s.Create(ctx, &models.Flow{Slug: uniqueSlug("root"), Content: "root", AuthorID: author.ID})
	if err != nil {
		t.Fatalf("Create root: %v", err)
	}
	reply, err := s.Create(ctx, &models.Flow{
		Slug: uniqueSlug("reply"), Content: "reply", AuthorID: author.ID, ParentID: &root.ID,
	})
	if err != nil {
		t.Fatalf("Create reply: %v", err)
	}

	if reply.Parent == nil || reply.Parent.ID != root.ID || reply.Parent.Slug != root.Slug {
		t.Errorf("parent ref not joined: %+v", reply.Parent)
	}

	found, err := s.FindBySlug(ctx, reply.Slug)
	if err != nil || found == nil {
		t.Fatalf("FindBySlug: %v, %v", found, err)
	}
	if found.ParentID == nil || *found.ParentID != root.ID {
		t.Error("parent id lost")
	}

	missing, err := s.FindBySlug(ctx, uniqueSlug("missing"))
	if err != nil || missing != nil {
		t.Errorf("FindBySlug(missing): %v, %v", missing, err)
	}
}

func TestFlowStoreSlugTaken(t *testing.T) {
	db := testDB(t)
	s := NewFlowStore(db)
	ctx := context.Background()
	author := testUser(t, db)
	slug := uniqueSlug("dup")

	if _, err := s.Create(ctx, &models.Flow{Slug: slug, Content: "a", AuthorID: author.ID}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := s.Create(ctx, &models.Flow{Slug: slug, Content: "b", AuthorID: author.ID})
	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}

	exists, err := s.SlugExists(ctx, slug)
	if err != nil || !exists {
		t.Errorf("SlugExists: %v, %v", exists, err)
	}
}

func TestFlowStoreSoftDeleteOnce(t *testing.T) {
	db := testDB(t)
	s := NewFlowStore(db)
	ctx := context.Background()
	author := testUser(t, db)

	root, _ := s.Create(ctx, &models.Flow{Slug: uniqueSlug("root"), Content: "root", AuthorID: author.ID})
	reply, _ := s.Create(ctx, &models.Flow{Slug: uniqueSlug("reply"), Content: "r", AuthorID: author.ID, ParentID: &root.ID})

	parent, changed, err := s.SoftDelete(ctx, reply.ID)
	if err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if !changed || parent == nil || *parent != root.ID {
		t.Errorf("first SoftDelete: changed=%v parent=%v", changed, parent)
	}

	_, changed, err = s.SoftDelete(ctx, reply.ID)
	if err != nil {
		t.Fatalf("SoftDelete again: %v", err)
	}
	if changed {
		t.Error("second SoftDelete must report no change")
	}

	_, changed, _ = s.SoftDelete(ctx, uuid.New())
	if changed {
		t.Error("SoftDelete of unknown flow must report no change")
	}
}

func TestFlowStoreReplyCountAndList(t *testing.T) {
	db := testDB(t)
	s := NewFlowStore(db)
	ctx := context.Background()
	author := testUser(t, db)

	root, _ := s.Create(ctx, &models.Flow{Slug: uniqueSlug("root"), Content: "root", AuthorID: author.ID})
	for i := 0; i < 3; i++ {
		s.Create(ctx, &models.Flow{Slug: uniqueSlug("r"), Content: "r", AuthorID: author.ID, ParentID: &root.ID})
	}

	if err := s.IncrementReplyCount(ctx, root.ID, 1); err != nil {
		t.Fatalf("IncrementReplyCount: %v", err)
	}
	s.IncrementReplyCount(ctx, root.ID, -1)
	s.IncrementReplyCount(ctx, root.ID, -1)
	got, _ := s.FindByID(ctx, root.ID)
	if got.ReplyCount != 0 {
		t.Errorf("reply count must not go below zero, got %d", got.ReplyCount)
	}

	filter := FlowFilter{ParentID: &root.ID}
	n, err := s.Count(ctx, filter)
	if err != nil || n != 3 {
		t.Errorf("Count: %d, %v", n, err)
	}
	page, err := s.List(ctx, filter, 2, 0)
	if err != nil || len(page) != 2 {
		t.Errorf("List: %d, %v", len(page), err)
	}

	mine := FlowFilter{AuthorID: &author.ID, IncludeDeleted: true}
	if n, _ := s.Count(ctx, mine); n != 4 {
		t.Errorf("author count: got %d, want 4", n)
	}
}
