package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

func TestPostService_CreateAndList(t *testing.T) {
	h := newHarness(t)
	owner := h.login(t)
	posts := NewPostService(h.session)
	ctx := context.Background()

	created, err := posts.Create(ctx, "hello", "first post")
	require.NoError(t, err)
	require.Equal(t, "hello", created.Title)
	require.Equal(t, owner.ID, created.OwnerID)
	require.Zero(t, created.LikesCount)

	req, _ := h.api.Last()
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, PathPosts, req.Path)
	require.JSONEq(t, `{"title":"hello","content":"first post"}`, string(req.Body))

	list, err := posts.List(ctx, 0, domain.DefaultPageLimit)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)

	req, _ = h.api.Last()
	require.Equal(t, "no-cache", req.Header.Get("Cache-Control"))
	require.Equal(t, "no-cache", req.Header.Get("Pragma"))
	require.Equal(t, "0", req.Query.Get("offset"))
	require.Equal(t, "100", req.Query.Get("limit"))
}

func TestPostService_ListEnvelope(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.EnvelopeLists = true
	posts := NewPostService(h.session)

	_, err := posts.Create(context.Background(), "t", "c")
	require.NoError(t, err)

	list, err := posts.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestPostService_ListCountsFromServer(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.Respond(http.MethodGet, PathPosts, http.StatusOK,
		`[{"id":"p1","title":"t","content":"c","owner_id":"u","created_at":"2025-01-02T03:04:05","likes_count":7,"comments_count":3}]`)

	list, err := NewPostService(h.session).List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Equal(t, 7, list[0].LikesCount)
	require.Equal(t, 3, list[0].CommentsCount)
	require.Equal(t, 2025, list[0].CreatedAt.Year())
}

func TestPostService_ListServerError(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.Respond(http.MethodGet, PathPosts, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := NewPostService(h.session).List(context.Background(), 0, 10)
	ae := requireKind(t, err, domain.KindServerError)
	require.Equal(t, "List Posts failed: Bad Gateway", ae.Message)
}

func TestPostService_CreateValidation(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	posts := NewPostService(h.session)
	before := h.api.Requests()

	_, err := posts.Create(context.Background(), strings.Repeat("x", domain.MaxTitleLength+1), "c")
	requireKind(t, err, domain.KindValidation)
	_, err = posts.Create(context.Background(), "t", "")
	requireKind(t, err, domain.KindValidation)
	require.Equal(t, before, h.api.Requests())

	h.api.Respond(http.MethodPost, PathPosts, http.StatusUnprocessableEntity, `{"detail":"title too long"}`)
	_, err = posts.Create(context.Background(), "t", "c")
	ae := requireKind(t, err, domain.KindValidation)
	require.Equal(t, "title too long", ae.Detail)
}

func TestPostService_Unauthenticated(t *testing.T) {
	h := newHarness(t)
	posts := NewPostService(h.session)

	_, err := posts.Create(context.Background(), "t", "c")
	requireKind(t, err, domain.KindUnauthorized)
	_, err = posts.List(context.Background(), 0, 10)
	requireKind(t, err, domain.KindUnauthorized)
	require.Zero(t, h.api.Requests())
}

func TestPostService_GetUpdateDelete(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	posts := NewPostService(h.session)
	ctx := context.Background()

	p, err := posts.Create(ctx, "t", "c")
	require.NoError(t, err)

	got, err := posts.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)

	title := "renamed"
	updated, err := posts.Update(ctx, p.ID, domain.PostUpdate{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)
	require.Equal(t, "c", updated.Content)
	require.False(t, updated.UpdatedAt.IsZero())

	require.NoError(t, posts.Delete(ctx, p.ID))
	require.Zero(t, h.api.PostCount())

	_, err = posts.Get(ctx, p.ID)
	ae := requireKind(t, err, domain.KindNotFound)
	require.Equal(t, "Get Post failed: Post not found", ae.Message)
}

func TestPostService_LocalChecks(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	posts := NewPostService(h.session)
	ctx := context.Background()
	before := h.api.Requests()

	_, err := posts.Get(ctx, "not-a-uuid")
	requireKind(t, err, domain.KindValidation)
	_, err = posts.List(ctx, 0, domain.MaxPageLimit+1)
	requireKind(t, err, domain.KindValidation)
	_, err = posts.List(ctx, -1, 10)
	requireKind(t, err, domain.KindValidation)
	_, err = posts.Update(ctx, "00000000-0000-0000-0000-000000000000", domain.PostUpdate{})
	requireKind(t, err, domain.KindValidation)

	require.Equal(t, before, h.api.Requests())
}
