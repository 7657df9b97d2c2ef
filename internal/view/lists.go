package view

import (
	"context"
	"slices"
	"sync"

	"dismoment/internal/models"
	"dismoment/internal/query"
	"dismoment/internal/session"

	"golang.org/x/sync/errgroup"
)

// ListStatus is the state of a list view: loading -> empty | populated | error.
type ListStatus string

const (
	ListLoading   ListStatus = "loading"
	ListEmpty     ListStatus = "empty"
	ListPopulated ListStatus = "populated"
	ListError     ListStatus = "error"
)

// PostList is a rendered list of posts.
type PostList struct {
	Status ListStatus    `json:"status"`
	Posts  []models.Post `json:"posts"`
	Error  string        `json:"error,omitempty"`
}

func postList(st query.State[[]models.Post]) PostList {
	switch {
	case st.IsLoading:
		return PostList{Status: ListLoading, Posts: []models.Post{}}
	case st.IsError:
		return PostList{Status: ListError, Posts: []models.Post{}, Error: errorMessage(st.Err, "Could not load posts.")}
	case len(st.Data) == 0:
		return PostList{Status: ListEmpty, Posts: []models.Post{}}
	default:
		return PostList{Status: ListPopulated, Posts: st.Data}
	}
}

// PostReader is the read side of the adapter for posts.
type PostReader interface {
	GetRecentPosts(ctx context.Context) ([]models.Post, error)
	GetPostsWithMedia(ctx context.Context) ([]models.Post, error)
	GetMostLikedPosts(ctx context.Context) ([]models.Post, error)
	SearchPosts(ctx context.Context, term string) ([]models.Post, error)
	GetPostsByAuthor(ctx context.Context, userID string) ([]models.Post, error)
	GetPostByID(ctx context.Context, id string) (models.Post, error)
}

// Liker changes like relations.
type Liker interface {
	LikePost(ctx context.Context, postID, userID string) (models.Post, error)
	UnlikePost(ctx context.Context, postID, userID string) (models.Post, error)
}

// FeedView serves the home feed, the explore grid, trending posts, search
// results and single posts.
type FeedView struct {
	posts PostReader
	likes Liker
	cache *query.Client
}

func NewFeedView(posts PostReader, likes Liker, cache *query.Client) *FeedView {
	return &FeedView{posts: posts, likes: likes, cache: cache}
}

func (v *FeedView) Recent(ctx context.Context, sc *session.Context) PostList {
	return v.list(ctx, sc, query.NewKey(query.OpRecentPosts), v.posts.GetRecentPosts)
}

// Explore lists the newest posts that carry media.
func (v *FeedView) Explore(ctx context.Context, sc *session.Context) PostList {
	return v.list(ctx, sc, query.NewKey(query.OpExplorePosts), v.posts.GetPostsWithMedia)
}

func (v *FeedView) Trending(ctx context.Context, sc *session.Context) PostList {
	return v.list(ctx, sc, query.NewKey(query.OpMostLiked), v.posts.GetMostLikedPosts)
}

func (v *FeedView) Search(ctx context.Context, sc *session.Context, term string) PostList {
	return v.list(ctx, sc, query.NewKey(query.OpSearchPosts, term), func(ctx context.Context) ([]models.Post, error) {
		return v.posts.SearchPosts(ctx, term)
	})
}

// ByAuthor lists the posts userID created, newest first.
func (v *FeedView) ByAuthor(ctx context.Context, sc *session.Context, userID string) PostList {
	return v.list(ctx, sc, query.NewKey(query.OpPostsByAuthor, userID), func(ctx context.Context) ([]models.Post, error) {
		return v.posts.GetPostsByAuthor(ctx, userID)
	})
}

func (v *FeedView) Post(ctx context.Context, sc *session.Context, id string) (models.Post, error) {
	st := query.New(v.cache, query.NewKey(query.OpPost, id), func(ctx context.Context) (models.Post, error) {
		return v.posts.GetPostByID(ctx, id)
	}).Load(sc.Backend(ctx))
	return st.Data, st.Err
}

// ToggleLike likes the post for the signed-in user, or removes the like.
func (v *FeedView) ToggleLike(ctx context.Context, sc *session.Context, postID string) (models.Post, error) {
	bctx := sc.Backend(ctx)
	current, err := v.posts.GetPostByID(bctx, postID)
	if err != nil {
		return models.Post{}, err
	}
	call := v.likes.LikePost
	if slices.Contains(current.Likes, sc.UserID()) {
		call = v.likes.UnlikePost
	}
	return query.Mutate(bctx, v.cache, func(ctx context.Context) (models.Post, error) {
		return call(ctx, postID, sc.UserID())
	}, query.NewKey(query.OpPost, postID), query.OpRecentPosts, query.OpExplorePosts, query.OpMostLiked, query.OpPostsByAuthor, query.OpSearchPosts)
}

func (v *FeedView) list(ctx context.Context, sc *session.Context, key query.Key, fetch func(context.Context) ([]models.Post, error)) PostList {
	return postList(query.New(v.cache, key, fetch).Load(sc.Backend(ctx)))
}

// UserReader is the read side of the adapter for users.
type UserReader interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// Profile is the rendered profile page.
type Profile struct {
	Status      ListStatus    `json:"status"`
	User        *models.User  `json:"user,omitempty"`
	Posts       []models.Post `json:"posts"`
	IsOwn       bool          `json:"is_own"`
	IsFollowing bool          `json:"is_following"`
	Error       string        `json:"error,omitempty"`
}

// ProfileView loads a user and their posts side by side. Switching to a
// different user bypasses the cache for both.
type ProfileView struct {
	users UserReader
	posts PostReader
	cache *query.Client

	mu     sync.Mutex
	lastID string
}

func NewProfileView(users UserReader, posts PostReader, cache *query.Client) *ProfileView {
	return &ProfileView{users: users, posts: posts, cache: cache}
}

func (v *ProfileView) Load(ctx context.Context, sc *session.Context, userID string) Profile {
	v.mu.Lock()
	changed := v.lastID != "" && v.lastID != userID
	v.lastID = userID
	v.mu.Unlock()

	userQ := query.New(v.cache, query.NewKey(query.OpUser, userID), func(ctx context.Context) (models.User, error) {
		return v.users.GetUserByID(ctx, userID)
	})
	postsQ := query.New(v.cache, query.NewKey(query.OpPostsByAuthor, userID), func(ctx context.Context) ([]models.Post, error) {
		return v.posts.GetPostsByAuthor(ctx, userID)
	})

	var (
		userSt  query.State[models.User]
		postsSt query.State[[]models.Post]
	)
	g, gctx := errgroup.WithContext(sc.Backend(ctx))
	g.Go(func() error {
		if changed {
			userSt = userQ.Refetch(gctx)
		} else {
			userSt = userQ.Load(gctx)
		}
		return userSt.Err
	})
	g.Go(func() error {
		if changed {
			postsSt = postsQ.Refetch(gctx)
		} else {
			postsSt = postsQ.Load(gctx)
		}
		return postsSt.Err
	})
	_ = g.Wait()

	if userSt.IsError {
		return Profile{Status: ListError, Posts: []models.Post{}, Error: errorMessage(userSt.Err, "Could not load profile.")}
	}
	user := userSt.Data
	p := Profile{
		User:        &user,
		IsOwn:       user.ID == sc.UserID(),
		IsFollowing: slices.Contains(sc.User.Following, user.ID),
	}
	list := postList(postsSt)
	p.Status, p.Posts, p.Error = list.Status, list.Posts, list.Error
	return p
}
