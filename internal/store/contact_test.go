package store

import (
	"context"
	"errors"
	"testing"

	"threadline/internal/models"
)

func TestContactStoreLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewContactStore(db)
	ctx := context.Background()
	slug := uniqueSlug("hello")
	t.Cleanup(func() { cleanContacts(t, db, slug) })

	m, err := s.Create(ctx, &models.ContactMessage{
		Name: "Ana", Email: "ana@example.com", Subject: "Hello", Message: "Hi there", Slug: slug,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.IsRead {
		t.Error("new message must be unread")
	}

	_, err = s.Create(ctx, &models.ContactMessage{Name: "B", Email: "b@example.com", Subject: "x", Message: "y", Slug: slug})
	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}

	unreadBefore, _ := s.Count(ctx, true)
	if err := s.MarkRead(ctx, m.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	unreadAfter, _ := s.Count(ctx, true)
	if unreadAfter != unreadBefore-1 {
		t.Errorf("unread count: before %d after %d", unreadBefore, unreadAfter)
	}

	got, err := s.FindBySlug(ctx, slug)
	if err != nil || got == nil || !got.IsRead {
		t.Fatalf("FindBySlug: %+v, %v", got, err)
	}

	if err := s.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gone, _ := s.FindByID(ctx, m.ID); gone != nil {
		t.Error("deleted message still found")
	}
}
