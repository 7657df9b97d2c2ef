package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"dismoment/internal/api"
	"dismoment/internal/models"
	"dismoment/internal/service"
	"dismoment/internal/session"
	"dismoment/internal/validation"
	"dismoment/internal/view"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpRes service.AuthResult
	signUpErr error
	signInRes service.AuthResult
	signInErr error
	signOutErr error

	parseSessionID string
	parseErr       error
	restoreCtx     *session.Context
	restoreErr     error

	lastSignUp     validation.Signup
	lastSignIn     validation.Login
	lastClient     string
	lastParseToken string
	signOuts       int
}

func (m *mockAuth) SignUp(ctx context.Context, client string, in validation.Signup) (service.AuthResult, error) {
	m.lastClient = client
	m.lastSignUp = in
	return m.signUpRes, m.signUpErr
}

func (m *mockAuth) SignIn(ctx context.Context, client string, in validation.Login) (service.AuthResult, error) {
	m.lastClient = client
	m.lastSignIn = in
	return m.signInRes, m.signInErr
}

func (m *mockAuth) SignOut(ctx context.Context, sc *session.Context) error {
	m.signOuts++
	return m.signOutErr
}

func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseSessionID, m.parseErr
}

func (m *mockAuth) Restore(ctx context.Context, sessionID string) (*session.Context, error) {
	if m.restoreErr != nil {
		return nil, m.restoreErr
	}
	if m.restoreCtx != nil {
		return m.restoreCtx, nil
	}
	return &session.Context{SessionID: sessionID, User: models.User{ID: "me", Username: "me"}}, nil
}

type mockPosts struct {
	list      view.PostList
	post      models.Post
	postErr   error
	likeErr   error
	createOut view.Outcome
	createErr error

	lastTerm  string
	lastPost  validation.NewPost
	lastMedia *api.Upload
	likes     int
}

func (m *mockPosts) Recent(ctx context.Context, sc *session.Context) view.PostList  { return m.list }
func (m *mockPosts) Explore(ctx context.Context, sc *session.Context) view.PostList { return m.list }
func (m *mockPosts) MostLiked(ctx context.Context, sc *session.Context) view.PostList {
	return m.list
}
func (m *mockPosts) SearchPosts(ctx context.Context, sc *session.Context, term string) view.PostList {
	m.lastTerm = term
	return m.list
}
func (m *mockPosts) GetPost(ctx context.Context, sc *session.Context, id string) (models.Post, error) {
	return m.post, m.postErr
}
func (m *mockPosts) CreatePost(ctx context.Context, sc *session.Context, in validation.NewPost, media *api.Upload) (view.Outcome, error) {
	m.lastPost = in
	m.lastMedia = media
	return m.createOut, m.createErr
}
func (m *mockPosts) ToggleLike(ctx context.Context, sc *session.Context, postID string) (models.Post, error) {
	m.likes++
	return m.post, m.likeErr
}

type mockUsers struct {
	user      models.User
	userErr   error
	profile   view.Profile
	list      view.PostList
	followOut view.Outcome
	followErr error
	editOut   view.Outcome
	editErr   error

	lastTarget  string
	lastProfile validation.Profile
	lastAvatar  *api.Upload
}

func (m *mockUsers) GetUser(ctx context.Context, sc *session.Context, id string) (models.User, error) {
	return m.user, m.userErr
}
func (m *mockUsers) Profile(ctx context.Context, sc *session.Context, id string) view.Profile {
	return m.profile
}
func (m *mockUsers) PostsByAuthor(ctx context.Context, sc *session.Context, id string) view.PostList {
	return m.list
}
func (m *mockUsers) ToggleFollow(ctx context.Context, sc *session.Context, targetID string) (view.Outcome, error) {
	m.lastTarget = targetID
	return m.followOut, m.followErr
}
func (m *mockUsers) EditProfile(ctx context.Context, sc *session.Context, in validation.Profile, avatar *api.Upload) (view.Outcome, error) {
	m.lastProfile = in
	m.lastAvatar = avatar
	return m.editOut, m.editErr
}

type mockFiles struct {
	url string
	err error
}

func (m *mockFiles) PreviewURL(fileID string) (string, error) { return m.url, m.err }

type mockEventLog struct {
	resp     []models.ActivityEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ActivityEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// mockSearch answers every input with a results message for that term.
type mockSearch struct {
	mu     sync.Mutex
	inputs []string
	closed bool
}

type mockSearchSession struct {
	m    *mockSearch
	emit func(view.SearchResult)
}

func (m *mockSearch) Open(ctx context.Context, sc *session.Context, emit func(view.SearchResult)) service.SearchSession {
	s := &mockSearchSession{m: m, emit: emit}
	s.Trending()
	return s
}

func (s *mockSearchSession) Input(value string) {
	s.m.mu.Lock()
	s.m.inputs = append(s.m.inputs, value)
	s.m.mu.Unlock()
	s.emit(view.SearchResult{Type: view.SearchResults, Term: value, Status: view.ListEmpty, Posts: []models.Post{}})
}

func (s *mockSearchSession) Trending() {
	s.emit(view.SearchResult{Type: view.SearchTrending, Status: view.ListEmpty, Posts: []models.Post{}})
}

func (s *mockSearchSession) Close() {
	s.m.mu.Lock()
	s.m.closed = true
	s.m.mu.Unlock()
}

func (m *mockSearch) wasClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	h := NewHandler(s, nil, opts...)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withAuth(req *http.Request, token string) *http.Request {
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
