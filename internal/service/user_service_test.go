package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"dismoment/internal/api"
	"dismoment/internal/models"
	"dismoment/internal/validation"
	"dismoment/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(t *testing.T, fa *fakeAdapter, acts *memActivityRepo) *UserService {
	t.Helper()
	cache := newTestCache(t)
	a := newActivity(acts, nil)
	return NewUserService(fa, fa, view.NewFeedView(fa, fa, cache), cache, newFormRegistry(16), newOrphanLedger(newMemOrphanRepo(), a, nil), a)
}

func TestUserService_ToggleFollow(t *testing.T) {
	tests := []struct {
		name      string
		following []string
		wantCall  string
		wantEvent string
	}{
		{name: "not following yet", wantCall: "follow:bob", wantEvent: models.EventFollow},
		{name: "already following", following: []string{"bob"}, wantCall: "unfollow:bob", wantEvent: models.EventUnfollow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fa := newFakeAdapter()
			acts := &memActivityRepo{}
			svc := newTestUserService(t, fa, acts)

			out, err := svc.ToggleFollow(context.Background(), viewerContext(tc.following...), "bob")
			require.NoError(t, err)
			assert.Equal(t, view.FormSuccess, out.State)
			assert.Equal(t, []string{tc.wantCall}, fa.recorded())
			assert.Equal(t, []string{tc.wantEvent}, acts.types())
		})
	}
}

func TestUserService_ToggleFollow_FailureBecomesToast(t *testing.T) {
	fa := newFakeAdapter()
	fa.followErr = api.ErrSelfFollow
	acts := &memActivityRepo{}
	svc := newTestUserService(t, fa, acts)

	out, err := svc.ToggleFollow(context.Background(), viewerContext(), "me")
	require.NoError(t, err)
	assert.Equal(t, view.FormFailure, out.State)
	require.NotNil(t, out.Notification)
	assert.Equal(t, "You cannot follow yourself.", out.Notification.Message)
	assert.Empty(t, acts.types())
}

func TestUserService_ToggleFollow_DoubleClickIssuesOneCall(t *testing.T) {
	fa := newFakeAdapter()
	fa.followBlock = make(chan struct{})
	svc := newTestUserService(t, fa, &memActivityRepo{})
	sc := viewerContext()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.ToggleFollow(context.Background(), sc, "bob")
	}()

	require.Eventually(t, func() bool { return len(fa.recorded()) == 1 }, time.Second, time.Millisecond)
	_, err := svc.ToggleFollow(context.Background(), viewerContext(), "bob")
	assert.ErrorIs(t, err, view.ErrBusy)

	close(fa.followBlock)
	wg.Wait()
	assert.Equal(t, []string{"follow:bob"}, fa.recorded())
}

func TestUserService_EditProfile(t *testing.T) {
	fa := newFakeAdapter()
	acts := &memActivityRepo{}
	svc := newTestUserService(t, fa, acts)
	sc := viewerContext()

	out, err := svc.EditProfile(context.Background(), sc, validation.Profile{
		Username: "me2", Email: "me@example.com", Name: "Me Too", Bio: "hi",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, view.FormSuccess, out.State)
	assert.True(t, out.Close)
	require.NotNil(t, out.Notification)
	assert.Equal(t, "User updated successfully", out.Notification.Message)
	assert.Equal(t, "me2", sc.User.Username)
	assert.Equal(t, []string{models.EventProfileEdit}, acts.types())

	out, err = svc.EditProfile(context.Background(), sc, validation.Profile{Username: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, view.FormIdle, out.State)
	assert.NotEmpty(t, out.FieldErrors)
}

func TestUserService_EditProfile_LedgersUndeletableOldAvatar(t *testing.T) {
	fa := newFakeAdapter()
	fa.deleteErrs["img-old"] = errors.New("bucket unavailable")
	acts := &memActivityRepo{}
	cache := newTestCache(t)
	a := newActivity(acts, nil)
	orphans := newMemOrphanRepo()
	svc := NewUserService(fa, fa, view.NewFeedView(fa, fa, cache), cache, newFormRegistry(16), newOrphanLedger(orphans, a, nil), a)
	sc := viewerContext()
	sc.User.ImageID = "img-old"

	out, err := svc.EditProfile(context.Background(), sc, validation.Profile{
		Username: "me", Email: "me@example.com", Name: "Me",
	}, &api.Upload{Name: "me.png", ContentType: "image/png", Content: strings.NewReader("px")})
	require.NoError(t, err)
	assert.Equal(t, view.FormSuccess, out.State)
	assert.Equal(t, "img-new", sc.User.ImageID)

	pending, err := orphans.Pending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "img-old", pending[0].FileID)
	assert.Contains(t, acts.types(), models.EventCompensation)
}

func TestUserService_ProfileAndPosts(t *testing.T) {
	fa := newFakeAdapter()
	fa.users["bob"] = models.User{ID: "bob", Username: "bob"}
	fa.posts = []models.Post{{ID: "p1", CreatorID: "bob"}, {ID: "p2", CreatorID: "carol"}}
	svc := newTestUserService(t, fa, &memActivityRepo{})
	sc := viewerContext("bob")

	p := svc.Profile(context.Background(), sc, "bob")
	require.NotNil(t, p.User)
	assert.Equal(t, view.ListPopulated, p.Status)
	assert.True(t, p.IsFollowing)
	assert.False(t, p.IsOwn)
	assert.Len(t, p.Posts, 1)

	list := svc.PostsByAuthor(context.Background(), sc, "bob")
	assert.Len(t, list.Posts, 1)

	u, err := svc.GetUser(context.Background(), sc, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	_, err = svc.GetUser(context.Background(), sc, "ghost")
	assert.True(t, errors.Is(err, api.ErrUserNotFound))
}

func TestFileService_PreviewURL(t *testing.T) {
	svc := NewFileService(newFakeAdapter())
	url, err := svc.PreviewURL("f1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/f1/preview", url)

	_, err = svc.PreviewURL("")
	assert.Error(t, err)
}
