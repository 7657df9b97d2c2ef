package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"dismoment/internal/api"
	"dismoment/internal/backend"
	"dismoment/internal/models"
	"dismoment/internal/query"
	"dismoment/internal/session"
)

// fakeAdapter stands in for *api.Adapter. Calls are recorded in order.
type fakeAdapter struct {
	mu    sync.Mutex
	calls []string

	signInErr   error
	createErr   error
	postErr     error
	followErr   error
	deleteErrs  map[string]error
	users       map[string]models.User
	posts       []models.Post
	followBlock chan struct{}

	// holdSignIn parks sign-ins for that identifier until releaseSignIn is closed.
	holdSignIn    string
	signInHeld    chan struct{}
	releaseSignIn chan struct{}
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{users: map[string]models.User{}, deleteErrs: map[string]error{}}
}

func (f *fakeAdapter) record(c string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeAdapter) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAdapter) CreateUserAccount(ctx context.Context, u api.NewUser) (models.User, error) {
	f.record("create_account:" + u.Username)
	if f.createErr != nil {
		return models.User{}, f.createErr
	}
	return models.User{ID: "u-" + u.Username, Username: u.Username}, nil
}

func (f *fakeAdapter) SignInAccount(ctx context.Context, c api.Credentials) (*backend.AccountSession, error) {
	f.record("sign_in:" + c.Identifier)
	if f.holdSignIn != "" && c.Identifier == f.holdSignIn {
		close(f.signInHeld)
		<-f.releaseSignIn
	}
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &backend.AccountSession{ID: "bs-1", Secret: "secret"}, nil
}

func (f *fakeAdapter) CreatePost(ctx context.Context, p api.NewPost) (models.Post, error) {
	f.record("create_post")
	if f.postErr != nil {
		return models.Post{}, f.postErr
	}
	return models.Post{ID: "p-new", CreatorID: p.CreatorID, Caption: p.Caption}, nil
}

func (f *fakeAdapter) GetUserByID(ctx context.Context, id string) (models.User, error) {
	f.record("get_user:" + id)
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return models.User{}, api.ErrUserNotFound
}

func (f *fakeAdapter) FollowUser(ctx context.Context, viewerID, targetID string) (models.User, error) {
	f.record("follow:" + targetID)
	if f.followBlock != nil {
		<-f.followBlock
	}
	if f.followErr != nil {
		return models.User{}, f.followErr
	}
	return models.User{ID: targetID, Followers: []string{viewerID}}, nil
}

func (f *fakeAdapter) UnfollowUser(ctx context.Context, viewerID, targetID string) (models.User, error) {
	f.record("unfollow:" + targetID)
	if f.followErr != nil {
		return models.User{}, f.followErr
	}
	return models.User{ID: targetID}, nil
}

func (f *fakeAdapter) EditProfile(ctx context.Context, upd api.ProfileUpdate) (models.User, error) {
	f.record("edit_profile:" + upd.UserID)
	u := models.User{ID: upd.UserID, Username: upd.Username, Email: upd.Email, Name: upd.Name, Bio: upd.Bio}
	if upd.Avatar != nil {
		u.ImageID = "img-new"
	}
	return u, nil
}

func (f *fakeAdapter) GetRecentPosts(ctx context.Context) ([]models.Post, error) {
	f.record("recent")
	return f.posts, nil
}

func (f *fakeAdapter) GetPostsWithMedia(ctx context.Context) ([]models.Post, error) {
	f.record("explore")
	return f.posts, nil
}

func (f *fakeAdapter) GetMostLikedPosts(ctx context.Context) ([]models.Post, error) {
	f.record("most_liked")
	return f.posts, nil
}

func (f *fakeAdapter) SearchPosts(ctx context.Context, term string) ([]models.Post, error) {
	f.record("search:" + term)
	return f.posts, nil
}

func (f *fakeAdapter) GetPostsByAuthor(ctx context.Context, userID string) ([]models.Post, error) {
	f.record("by_author:" + userID)
	var out []models.Post
	for _, p := range f.posts {
		if p.CreatorID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAdapter) GetPostByID(ctx context.Context, id string) (models.Post, error) {
	f.record("get_post:" + id)
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Post{}, api.ErrPostNotFound
}

func (f *fakeAdapter) LikePost(ctx context.Context, postID, userID string) (models.Post, error) {
	f.record("like:" + postID)
	return models.Post{ID: postID, Likes: []string{userID}}, nil
}

func (f *fakeAdapter) UnlikePost(ctx context.Context, postID, userID string) (models.Post, error) {
	f.record("unlike:" + postID)
	return models.Post{ID: postID}, nil
}

func (f *fakeAdapter) DeleteFile(ctx context.Context, fileID string) error {
	f.record("delete_file:" + fileID)
	return f.deleteErrs[fileID]
}

func (f *fakeAdapter) DiscardFile(ctx context.Context, op, fileID string) error {
	f.record("discard_file:" + fileID)
	if err := f.deleteErrs[fileID]; err != nil {
		return &api.CompensationError{Op: op, Cause: api.ErrReplaced, CleanupErr: err, File: &models.File{ID: fileID, BucketID: "media"}}
	}
	return nil
}

func (f *fakeAdapter) GetFilePreview(fileID string) (string, error) {
	if fileID == "" {
		return "", errors.New("file id is required")
	}
	return "https://cdn.example/" + fileID + "/preview", nil
}

// fakeSessions stands in for *session.Manager.
type fakeSessions struct {
	mu       sync.Mutex
	user     models.User
	expires  time.Time
	beginErr error
	endErr   error
	stored   map[string]*session.Context
	ended    []string
	purged   int
	nextID   int
}

func newFakeSessions(user models.User) *fakeSessions {
	return &fakeSessions{user: user, stored: map[string]*session.Context{}}
}

func (s *fakeSessions) Begin(ctx context.Context, bs *backend.AccountSession) (*session.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.nextID++
	sc := &session.Context{SessionID: "s" + strconv.Itoa(s.nextID), Secret: bs.Secret, ExpiresAt: s.expires, User: s.user}
	s.stored[sc.SessionID] = sc
	return sc, nil
}

func (s *fakeSessions) Restore(ctx context.Context, id string) (*session.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.stored[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return sc, nil
}

func (s *fakeSessions) End(ctx context.Context, sc *session.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stored, sc.SessionID)
	s.ended = append(s.ended, sc.SessionID)
	return s.endErr
}

func (s *fakeSessions) Purge(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purged++
	return 0, nil
}

func newTestCache(t *testing.T) *query.Client {
	t.Helper()
	c, err := query.NewClient(64, time.Minute)
	if err != nil {
		t.Fatalf("query.NewClient: %v", err)
	}
	return c
}

func viewerContext(following ...string) *session.Context {
	return &session.Context{
		SessionID: "sess-1",
		Secret:    "secret",
		User:      models.User{ID: "me", Username: "me", Following: following},
	}
}
