package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dismoment/internal/api"
	"dismoment/internal/models"
	"dismoment/internal/validation"
	"dismoment/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeedService(t *testing.T, fa *fakeAdapter, acts *memActivityRepo, orphans *memOrphanRepo) *FeedService {
	t.Helper()
	cache := newTestCache(t)
	a := newActivity(acts, nil)
	return NewFeedService(view.NewFeedView(fa, fa, cache), fa, cache, newFormRegistry(16), newOrphanLedger(orphans, a, nil), a)
}

func TestFeedService_CreatePost_Success(t *testing.T) {
	fa := newFakeAdapter()
	acts := &memActivityRepo{}
	svc := newTestFeedService(t, fa, acts, newMemOrphanRepo())

	out, err := svc.CreatePost(context.Background(), viewerContext(), validation.NewPost{Caption: "sunset at the pier"},
		&api.Upload{Name: "a.jpg", ContentType: "image/jpeg", Content: strings.NewReader("jpg")})
	require.NoError(t, err)
	assert.Equal(t, view.FormSuccess, out.State)
	assert.Equal(t, view.RouteHome, out.Route)
	assert.True(t, out.Reset)
	require.IsType(t, models.Post{}, out.Data)
	assert.Equal(t, "p-new", out.Data.(models.Post).ID)
	assert.Equal(t, []string{models.EventPostCreated}, acts.types())
}

func TestFeedService_CreatePost_MissingMedia(t *testing.T) {
	fa := newFakeAdapter()
	svc := newTestFeedService(t, fa, &memActivityRepo{}, newMemOrphanRepo())

	out, err := svc.CreatePost(context.Background(), viewerContext(), validation.NewPost{Caption: "no picture here"}, nil)
	require.NoError(t, err)
	assert.Equal(t, view.FormIdle, out.State)
	assert.Contains(t, out.FieldErrors, "file")
	assert.Empty(t, fa.recorded())
}

func TestFeedService_CreatePost_OrphanRecorded(t *testing.T) {
	fa := newFakeAdapter()
	fa.postErr = &api.CompensationError{
		Op:         "create post",
		Cause:      errors.New("insert failed"),
		CleanupErr: errors.New("delete failed"),
		File:       &models.File{ID: "f-9", BucketID: "media"},
	}
	acts := &memActivityRepo{}
	orphans := newMemOrphanRepo()
	svc := newTestFeedService(t, fa, acts, orphans)

	out, err := svc.CreatePost(context.Background(), viewerContext(), validation.NewPost{Caption: "will not stick"},
		&api.Upload{Name: "b.png", ContentType: "image/png", Content: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, view.FormFailure, out.State)
	require.NotNil(t, out.Notification)
	assert.Equal(t, view.NotifyError, out.Notification.Kind)
	assert.Contains(t, orphans.rows, "f-9")
	assert.Equal(t, []string{models.EventCompensation}, acts.types())
}

func TestFeedService_ListsReadThroughCache(t *testing.T) {
	fa := newFakeAdapter()
	fa.posts = []models.Post{{ID: "p1", CreatorID: "me", Likes: []string{}}}
	svc := newTestFeedService(t, fa, &memActivityRepo{}, newMemOrphanRepo())
	sc := viewerContext()

	first := svc.Recent(context.Background(), sc)
	second := svc.Recent(context.Background(), sc)
	assert.Equal(t, view.ListPopulated, first.Status)
	assert.Equal(t, first.Posts, second.Posts)
	assert.Equal(t, []string{"recent"}, fa.recorded())

	svc.Explore(context.Background(), sc)
	svc.MostLiked(context.Background(), sc)
	svc.SearchPosts(context.Background(), sc, "cat")
	assert.Equal(t, []string{"recent", "explore", "most_liked", "search:cat"}, fa.recorded())
}

func TestFeedService_ToggleLike(t *testing.T) {
	fa := newFakeAdapter()
	fa.posts = []models.Post{{ID: "p1", Likes: []string{"me"}}}
	svc := newTestFeedService(t, fa, &memActivityRepo{}, newMemOrphanRepo())

	_, err := svc.ToggleLike(context.Background(), viewerContext(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"get_post:p1", "unlike:p1"}, fa.recorded())

	_, err = svc.GetPost(context.Background(), viewerContext(), "missing")
	assert.ErrorIs(t, err, api.ErrPostNotFound)
}
