package view

import (
	"context"
	"sync"
	"testing"
	"time"

	"dismoment/internal/api"
	"dismoment/internal/backend"
	"dismoment/internal/models"
	"dismoment/internal/query"
	"dismoment/internal/session"

	"github.com/stretchr/testify/require"
)

// fakeAPI records every adapter call in order. Hooks override behaviour.
type fakeAPI struct {
	mu  sync.Mutex
	log []string

	createAccount func(api.NewUser) (models.User, error)
	signIn        func(api.Credentials) (*backend.AccountSession, error)
	createPost    func(api.NewPost) (models.Post, error)
	editProfile   func(api.ProfileUpdate) (models.User, error)
	discard       func(fileID string) error
	follow        func(viewerID, targetID string) (models.User, error)
	unfollow      func(viewerID, targetID string) (models.User, error)
	search        func(term string) ([]models.Post, error)
	getUser       func(id string) (models.User, error)
	byAuthor      func(id string) ([]models.Post, error)
	posts         []models.Post
}

func (f *fakeAPI) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, s)
}

func (f *fakeAPI) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.log...)
}

func (f *fakeAPI) CreateUserAccount(ctx context.Context, u api.NewUser) (models.User, error) {
	f.record("create_account:" + u.Username)
	if f.createAccount != nil {
		return f.createAccount(u)
	}
	return models.User{ID: "u-" + u.Username, Username: u.Username}, nil
}

func (f *fakeAPI) SignInAccount(ctx context.Context, c api.Credentials) (*backend.AccountSession, error) {
	f.record("sign_in:" + c.Identifier)
	if f.signIn != nil {
		return f.signIn(c)
	}
	return &backend.AccountSession{ID: "bs", Secret: "secret"}, nil
}

func (f *fakeAPI) CreatePost(ctx context.Context, p api.NewPost) (models.Post, error) {
	f.record("create_post")
	if f.createPost != nil {
		return f.createPost(p)
	}
	return models.Post{ID: "p-new", CreatorID: p.CreatorID, Caption: p.Caption}, nil
}

func (f *fakeAPI) EditProfile(ctx context.Context, upd api.ProfileUpdate) (models.User, error) {
	f.record("edit_profile:" + upd.UserID)
	if f.editProfile != nil {
		return f.editProfile(upd)
	}
	return models.User{ID: upd.UserID, Username: upd.Username, Name: upd.Name, Bio: upd.Bio}, nil
}

func (f *fakeAPI) DiscardFile(ctx context.Context, op, fileID string) error {
	f.record("discard_file:" + fileID)
	if f.discard != nil {
		return f.discard(fileID)
	}
	return nil
}

func (f *fakeAPI) FollowUser(ctx context.Context, viewerID, targetID string) (models.User, error) {
	f.record("follow:" + targetID)
	if f.follow != nil {
		return f.follow(viewerID, targetID)
	}
	return models.User{ID: targetID, Followers: []string{viewerID}}, nil
}

func (f *fakeAPI) UnfollowUser(ctx context.Context, viewerID, targetID string) (models.User, error) {
	f.record("unfollow:" + targetID)
	if f.unfollow != nil {
		return f.unfollow(viewerID, targetID)
	}
	return models.User{ID: targetID, Followers: []string{}}, nil
}

func (f *fakeAPI) GetUserByID(ctx context.Context, id string) (models.User, error) {
	f.record("get_user:" + id)
	if f.getUser != nil {
		return f.getUser(id)
	}
	return models.User{ID: id, Username: "user-" + id}, nil
}

func (f *fakeAPI) GetRecentPosts(ctx context.Context) ([]models.Post, error) {
	f.record("recent_posts")
	return f.posts, nil
}

func (f *fakeAPI) GetPostsWithMedia(ctx context.Context) ([]models.Post, error) {
	f.record("explore_posts")
	return f.posts, nil
}

func (f *fakeAPI) GetMostLikedPosts(ctx context.Context) ([]models.Post, error) {
	f.record("most_liked")
	return f.posts, nil
}

func (f *fakeAPI) SearchPosts(ctx context.Context, term string) ([]models.Post, error) {
	f.record("search:" + term)
	if f.search != nil {
		return f.search(term)
	}
	return []models.Post{{ID: "hit-" + term, Caption: term}}, nil
}

func (f *fakeAPI) GetPostsByAuthor(ctx context.Context, userID string) ([]models.Post, error) {
	f.record("posts_by_author:" + userID)
	if f.byAuthor != nil {
		return f.byAuthor(userID)
	}
	return []models.Post{{ID: "p-" + userID, CreatorID: userID}}, nil
}

func (f *fakeAPI) GetPostByID(ctx context.Context, id string) (models.Post, error) {
	f.record("get_post:" + id)
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Post{}, api.ErrPostNotFound
}

func (f *fakeAPI) LikePost(ctx context.Context, postID, userID string) (models.Post, error) {
	f.record("like:" + postID)
	return models.Post{ID: postID, Likes: []string{userID}}, nil
}

func (f *fakeAPI) UnlikePost(ctx context.Context, postID, userID string) (models.Post, error) {
	f.record("unlike:" + postID)
	return models.Post{ID: postID, Likes: []string{}}, nil
}

type fakeSessions struct {
	err error
}

func (s *fakeSessions) Begin(ctx context.Context, bs *backend.AccountSession) (*session.Context, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &session.Context{SessionID: "sid", Secret: bs.Secret, User: models.User{ID: "u1"}}, nil
}

// effects records navigation and toasts, optionally into a shared log.
type effects struct {
	route  string
	kind   string
	toast  string
	shared *fakeAPI
}

func (e *effects) Navigate(route string) { e.route = route }

func (e *effects) Notify(kind, message string) {
	e.kind, e.toast = kind, message
	if e.shared != nil {
		e.shared.record("toast:" + message)
	}
}

type orphanLog struct {
	mu    sync.Mutex
	files []string
}

func (o *orphanLog) RecordOrphan(ctx context.Context, ce *api.CompensationError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files = append(o.files, ce.File.ID)
}

func newCache(t *testing.T) *query.Client {
	t.Helper()
	c, err := query.NewClient(64, time.Minute)
	require.NoError(t, err)
	return c
}

func viewer(following ...string) *session.Context {
	return &session.Context{SessionID: "sid", Secret: "secret", User: models.User{ID: "me", Following: following}}
}

var errBackend = &backend.Error{Status: 500, Message: "backend exploded"}

