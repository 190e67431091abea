package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadline/internal/apperr"
	"threadline/internal/models"
)

func validContact() ContactInput {
	return ContactInput{
		Name:    "Ana Pop",
		Email:   "ana@example.com",
		Subject: "Partnership proposal",
		Message: "Hello there.",
	}
}

func TestContactSubmit(t *testing.T) {
	h := newHarness(t, constantSuffix(1234))
	ctx := context.Background()

	msg, err := h.contacts.Submit(ctx, validContact())
	require.NoError(t, err)
	assert.Equal(t, "partnership-proposal", msg.Slug)
	assert.False(t, msg.IsRead)

	again, err := h.contacts.Submit(ctx, validContact())
	require.NoError(t, err)
	assert.Equal(t, "partnership-proposal-1234", again.Slug)
}

// failingCount breaks Count so a Submit that depends on it shows up.
type failingCount struct {
	ContactRepository
	counted int
}

func (f *failingCount) Count(context.Context, bool) (int, error) {
	f.counted++
	return 0, errors.New("count unavailable")
}

func TestContactSubmitSkipsCount(t *testing.T) {
	h := newHarness(t)
	repo := &failingCount{ContactRepository: h.contRepo}
	svc := NewContactService(repo)

	msg, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)
	assert.Equal(t, "partnership-proposal", msg.Slug)
	assert.Zero(t, repo.counted, "submit must not query the unread count")
}

func TestContactSubmitValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*ContactInput)
	}{
		{"missing name", func(in *ContactInput) { in.Name = " " }},
		{"long name", func(in *ContactInput) { in.Name = strings.Repeat("n", MaxContactName+1) }},
		{"bad email", func(in *ContactInput) { in.Email = "not-an-email" }},
		{"display name email", func(in *ContactInput) { in.Email = "Ana <ana@example.com>" }},
		{"missing subject", func(in *ContactInput) { in.Subject = "" }},
		{"long message", func(in *ContactInput) { in.Message = strings.Repeat("m", MaxContactMessage+1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validContact()
			tt.mutate(&in)
			_, err := h.contacts.Submit(ctx, in)
			assertCode(t, err, apperr.CodeValidationFailed)
		})
	}
}

func TestContactReadFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	msg, err := h.contacts.Submit(ctx, validContact())
	require.NoError(t, err)

	unread, err := h.contacts.ListUnread(ctx, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 1, unread.Meta.Total)

	found, err := h.contacts.FindBySlug(ctx, msg.Slug)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, found.ID)

	require.NoError(t, h.contacts.MarkRead(ctx, msg.ID))
	_, err = h.contacts.FindBySlug(ctx, msg.Slug)
	assertCode(t, err, apperr.CodeNotFound)

	unread, err = h.contacts.ListUnread(ctx, models.Pagination{})
	require.NoError(t, err)
	assert.Zero(t, unread.Meta.Total)

	assertCode(t, h.contacts.MarkRead(ctx, uuid.New()), apperr.CodeNotFound)
	require.NoError(t, h.contacts.Delete(ctx, msg.ID))
	assertCode(t, h.contacts.Delete(ctx, msg.ID), apperr.CodeNotFound)
}
