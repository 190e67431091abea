package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadline/internal/apperr"
	"threadline/internal/events"
	"threadline/internal/markdown"
	"threadline/internal/models"
)

func (h *harness) post(t *testing.T, author *models.User, topic *models.Topic, title string, parent *models.Post) *models.Post {
	t.Helper()
	in := CreatePostInput{Title: title, Content: "Body of " + title, TopicID: topic.ID}
	if parent != nil {
		in.ParentID = &parent.ID
	}
	p, err := h.posts.Create(context.Background(), author.ID, in)
	require.NoError(t, err)
	return p
}

func TestPostCreate(t *testing.T) {
	h := newHarness(t)
	ana := h.user(t, "ana", models.RoleUser)
	topic := h.topic(t, ana, true)
	ctx := context.Background()

	body := strings.Repeat("word ", 450)
	p, err := h.posts.Create(ctx, ana.ID, CreatePostInput{
		Title:   "  Șarpele Verde!  ",
		Content: body,
		TopicID: topic.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Șarpele Verde!", p.Title)
	assert.Equal(t, "sarpele-verde", p.Slug)
	assert.True(t, p.Status, "posts are published by default")
	assert.Equal(t, 3, p.ReadingTime)
	require.NotNil(t, p.Author)
	assert.Equal(t, ana.ID, p.Author.ID)
	h.runner.Wait()

	got, _ := h.topics.FindByID(ctx, topic.ID)
	assert.Equal(t, 1, got.PostCount)
	require.NotNil(t, got.LastPostAt)
}

func TestPostCreateValidation(t *testing.T) {
	h := newHarness(t)
	ana := h.user(t, "ana", models.RoleUser)
	topic := h.topic(t, ana, true)
	ctx := context.Background()
	missing := uuid.New()

	tests := []struct {
		name string
		in   CreatePostInput
		code apperr.Code
	}{
		{"empty title", CreatePostInput{Title: " ", Content: "x", TopicID: topic.ID}, apperr.CodeValidationFailed},
		{"long title", CreatePostInput{Title: strings.Repeat("t", MaxPostTitle+1), Content: "x", TopicID: topic.ID}, apperr.CodeValidationFailed},
		{"blank content", CreatePostInput{Title: "t", Content: "\n\n", TopicID: topic.ID}, apperr.CodeValidationFailed},
		{"unknown topic", CreatePostInput{Title: "t", Content: "x", TopicID: missing}, apperr.CodeNotFound},
		{"unknown parent", CreatePostInput{Title: "t", Content: "x", TopicID: topic.ID, ParentID: &missing}, apperr.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.posts.Create(ctx, ana.ID, tt.in)
			assertCode(t, err, tt.code)
		})
	}

	_, err := h.posts.Create(ctx, uuid.New(), CreatePostInput{Title: "t", Content: "x", TopicID: topic.ID})
	assertCode(t, err, apperr.CodeNotFound)
}

func TestPostReplyStatsAndNotification(t *testing.T) {
	h := newHarness(t)
	ana := h.user(t, "ana", models.RoleUser)
	bob := h.user(t, "bob", models.RoleUser)
	topic := h.topic(t, ana, true)
	ctx := context.Background()

	parent, err := h.posts.Create(ctx, ana.ID, CreatePostInput{
		Title:   "Question",
		Content: "# Heading\n\nSome **bold** words that run past the excerpt limit.",
		TopicID: topic.ID,
	})
	require.NoError(t, err)

	h.post(t, ana, topic, "Self answer", parent)
	reply := h.post(t, bob, topic, "Answer", parent)
	h.runner.Wait()

	gotParent, err := h.posts.FindByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, gotParent.PostCount)
	require.NotNil(t, gotParent.LastPostAt)

	gotTopic, _ := h.topics.FindByID(ctx, topic.ID)
	assert.Equal(t, 3, gotTopic.PostCount)

	evs := h.recorder.OfKind(events.KindPostReplied)
	require.Len(t, evs, 1, "self-replies do not notify")
	var p events.PostReplied
	require.NoError(t, events.Decode(evs[0], &p))
	assert.Equal(t, reply.ID, p.PostID)
	assert.Equal(t, reply.Slug, p.PostSlug)
	assert.Equal(t, "Question", p.ParentTitle)
	assert.Equal(t, ana.ID, p.ParentOwnerID)
	assert.Equal(t, bob.ID, p.ReplierID)
	assert.Equal(t, events.Excerpt(markdown.PlainText(parent.Content), events.DefaultExcerptLen), p.ParentExcerpt)
	assert.NotContains(t, p.ParentExcerpt, "**")
	assert.NotContains(t, p.ParentExcerpt, "#")
}

func TestPostIncrementViewDeduplicates(t *testing.T) {
	h := newHarness(t)
	ana := h.user(t, "ana", models.RoleUser)
	topic := h.topic(t, ana, true)
	p := h.post(t, ana, topic, "Viewed", nil)
	ctx := context.Background()

	assert.True(t, h.posts.IncrementView(ctx, p.ID, "10.0.0.1"))
	assert.False(t, h.posts.IncrementView(ctx, p.ID, "10.0.0.1"))
	assert.True(t, h.posts.IncrementView(ctx, p.ID, "10.0.0.2"))
	assert.False(t, h.posts.IncrementView(ctx, p.ID, ""))

	h.clock.Advance(23 * time.Hour)
	assert.False(t, h.posts.IncrementView(ctx, p.ID, "10.0.0.1"))
	h.clock.Advance(time.Hour)
	assert.True(t, h.posts.IncrementView(ctx, p.ID, "10.0.0.1"), "a view counts again after the TTL")
	h.runner.Wait()

	got, _ := h.posts.FindByID(ctx, p.ID)
	assert.Equal(t, 3, got.ViewCount)
}

func TestPostTitleEditReallocatesSlug(t *testing.T) {
	h := newHarness(t)
	ana := h.user(t, "ana", models.RoleUser)
	topic := h.topic(t, ana, true)
	p := h.post(t, ana, topic, "Old Title", nil)
	ctx := context.Background()

	title := "New Title"
	updated, err := h.posts.Update(ctx, p.ID, ana.ID, UpdatePostInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "new-title", updated.Slug)

	_, err = h.posts.FindBySlug(ctx, "old-title", nil)
	assertCode(t, err, apperr.CodeNotFound)

	found, err := h.posts.FindBySlug(ctx, "new-title", nil)
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	// Content-only edits keep the slug and recompute reading time.
	content := strings.Repeat("word ", 401)
	updated, err = h.posts.Update(ctx, p.ID, ana.ID, UpdatePostInput{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "new-title", updated.Slug)
	assert.Equal(t, 3, updated.ReadingTime)
}

func TestPostUpdatePermissions(t *testing.T) {
	h := newHarness(t)
	ana := h.user(t, "ana", models.RoleUser)
	bob := h.user(t, "bob", models.RoleUser)
	mod := h.user(t, "mod", models.RoleModerator)
	topic := h.topic(t, ana, true)
	p := h.post(t, ana, topic, "Mine", nil)
	ctx := context.Background()

	title := "Theirs"
	_, err := h.posts.Update(ctx, p.ID, bob.ID, UpdatePostInput{Title: &title})
	assertCode(t, err, apperr.CodeForbidden)

	_, err = h.posts.Update(ctx, p.ID, mod.ID, UpdatePostInput{Title: &title})
	assert.NoError(t, err)

	_, err = h.posts.Update(ctx, uuid.New(), ana.ID, UpdatePostInput{Title: &title})
	assertCode(t, err, apperr.CodeNotFound)

	empty := ""
	updated, err := h.posts.Update(ctx, p.ID, ana.ID, UpdatePostInput{MainImage: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.MainImage)
}

func TestPostStatusChangeRecounts(t *testing.T) {
	h := newHarness(t)
	ana := h.user(t, "ana", models.RoleUser)
	topic := h.topic(t, ana, true)
	parent := h.post(t, ana, topic, "Parent", nil)
	reply := h.post(t, ana, topic, "Reply", parent)
	h.runner.Wait()
	ctx := context.Background()

	off := false
	_, err := h.posts.Update(ctx, reply.ID, ana.ID, UpdatePostInput{Status: &off})
	require.NoError(t, err)
	h.runner.Wait()

	gotParent, _ := h.postRepo.FindByID(ctx, parent.ID)
	assert.Equal(t, 0, gotParent.PostCount)
	gotTopic, _ := h.topics.FindByID(ctx, topic.ID)
	assert.Equal(t, 1, gotTopic.PostCount)
}

func TestPostVisibility(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "owner", models.RoleUser)
	author := h.user(t, "author", models.RoleUser)
	stranger := h.user(t, "stranger", models.RoleUser)
	admin := h.user(t, "admin", models.RoleAdmin)
	ctx := context.Background()

	active := h.topic(t, owner, true)
	hidden := h.topic(t, owner, false)

	off := false
	draft, err := h.posts.Create(ctx, author.ID, CreatePostInput{Title: "Draft", Content: "x", TopicID: active.ID, Status: &off})
	require.NoError(t, err)
	inHidden := h.post(t, author, hidden, "Hidden topic", nil)

	tests := []struct {
		name   string
		slug   string
		viewer *uuid.UUID
		ok     bool
	}{
		{"draft anonymous", draft.Slug, nil, false},
		{"draft stranger", draft.Slug, &stranger.ID, false},
		{"draft topic owner", draft.Slug, &owner.ID, false},
		{"draft author", draft.Slug, &author.ID, true},
		{"draft staff", draft.Slug, &admin.ID, true},
		{"hidden anonymous", inHidden.Slug, nil, false},
		{"hidden stranger", inHidden.Slug, &stranger.ID, false},
		{"hidden topic owner", inHidden.Slug, &owner.ID, false},
		{"hidden staff", inHidden.Slug, &admin.ID, true},
		{"hidden author", inHidden.Slug, &author.ID, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := h.posts.FindBySlug(ctx, tt.slug, tt.viewer)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.slug, p.Slug)
				return
			}
			assertCode(t, err, apperr.CodeForbidden)
		})
	}

	public, err := h.posts.List(ctx, models.Pagination{})
	require.NoError(t, err)
	assert.Zero(t, public.Meta.Total)

	mine, err := h.posts.ListMine(ctx, author.ID, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Meta.Total)
}

func TestPostDelete(t *testing.T) {
	h := newHarness(t)
	ana := h.user(t, "ana", models.RoleUser)
	topic := h.topic(t, ana, true)
	parent := h.post(t, ana, topic, "Parent", nil)
	reply := h.post(t, ana, topic, "Reply", parent)
	ctx := context.Background()

	require.NoError(t, h.posts.Delete(ctx, parent.ID))
	h.runner.Wait()

	_, err := h.posts.FindByID(ctx, parent.ID)
	assertCode(t, err, apperr.CodeNotFound)

	orphan, err := h.posts.FindByID(ctx, reply.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan.ParentID)

	gotTopic, _ := h.topics.FindByID(ctx, topic.ID)
	assert.Equal(t, 1, gotTopic.PostCount)

	assertCode(t, h.posts.Delete(ctx, parent.ID), apperr.CodeNotFound)
}

func TestPostListings(t *testing.T) {
	h := newHarness(t)
	ana := h.user(t, "ana", models.RoleUser)
	topic := h.topic(t, ana, true)
	ctx := context.Background()

	root := h.post(t, ana, topic, "Root", nil)
	hot := h.post(t, ana, topic, "Hot", nil)
	h.post(t, ana, topic, "Reply", root)
	for _, client := range []string{"a", "b", "c"} {
		h.posts.IncrementView(ctx, hot.ID, client)
	}
	h.posts.IncrementView(ctx, root.ID, "a")
	h.runner.Wait()

	trending, err := h.posts.ListTrending(ctx, models.Pagination{})
	require.NoError(t, err)
	require.Len(t, trending.Data, 3)
	assert.Equal(t, hot.ID, trending.Data[0].ID)
	assert.Equal(t, root.ID, trending.Data[1].ID)

	byTopic, err := h.posts.ListByTopic(ctx, topic.ID, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 2, byTopic.Meta.Total, "topic listing shows root posts only")

	replies, err := h.posts.ListReplies(ctx, root.ID, models.Pagination{})
	require.NoError(t, err)
	require.Len(t, replies.Data, 1)
	assert.Equal(t, "Reply", replies.Data[0].Title)

	byUser, err := h.posts.ListByUsername(ctx, "ana", models.Pagination{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, byUser.Data, 2)
	assert.Equal(t, 2, byUser.Meta.TotalPages)

	_, err = h.posts.ListByTopic(ctx, uuid.New(), models.Pagination{})
	assertCode(t, err, apperr.CodeNotFound)
}

func TestPostUpdateScores(t *testing.T) {
	h := newHarness(t)
	ana := h.user(t, "ana", models.RoleUser)
	topic := h.topic(t, ana, true)
	p := h.post(t, ana, topic, "Scored", nil)
	ctx := context.Background()

	require.NoError(t, h.posts.UpdateScores(ctx, p.ID, ScoresInput{Score: 4, Upvotes: 5, Downvotes: 0}))
	got, _ := h.posts.FindByID(ctx, p.ID)
	require.NotNil(t, got.Score)
	assert.Equal(t, 4, *got.Score)
	assert.Equal(t, 5, *got.Upvotes)
	assert.Nil(t, got.Downvotes)

	assertCode(t, h.posts.UpdateScores(ctx, uuid.New(), ScoresInput{}), apperr.CodeNotFound)
}
