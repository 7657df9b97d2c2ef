package service

import (
	"context"

	"dismoment/internal/api"
	"dismoment/internal/models"
	"dismoment/internal/query"
	"dismoment/internal/session"
	"dismoment/internal/validation"
	"dismoment/internal/view"
)

// FeedService serves the post lists and the create-post form.
type FeedService struct {
	feed     *view.FeedView
	posts    view.Publisher
	cache    *query.Client
	forms    *formRegistry
	orphans  view.OrphanRecorder
	activity *activity
}

func NewFeedService(feed *view.FeedView, posts view.Publisher, cache *query.Client, forms *formRegistry, orphans view.OrphanRecorder, a *activity) *FeedService {
	if forms == nil {
		forms = newFormRegistry(0)
	}
	return &FeedService{feed: feed, posts: posts, cache: cache, forms: forms, orphans: orphans, activity: a}
}

func (s *FeedService) Recent(ctx context.Context, sc *session.Context) view.PostList {
	return s.feed.Recent(ctx, sc)
}

func (s *FeedService) Explore(ctx context.Context, sc *session.Context) view.PostList {
	return s.feed.Explore(ctx, sc)
}

func (s *FeedService) MostLiked(ctx context.Context, sc *session.Context) view.PostList {
	return s.feed.Trending(ctx, sc)
}

func (s *FeedService) SearchPosts(ctx context.Context, sc *session.Context, term string) view.PostList {
	return s.feed.Search(ctx, sc, term)
}

func (s *FeedService) GetPost(ctx context.Context, sc *session.Context, id string) (models.Post, error) {
	return s.feed.Post(ctx, sc, id)
}

func (s *FeedService) ToggleLike(ctx context.Context, sc *session.Context, postID string) (models.Post, error) {
	return s.feed.ToggleLike(ctx, sc, postID)
}

// CreatePost submits the create-post form of the session. The created post
// is returned in Outcome.Data.
func (s *FeedService) CreatePost(ctx context.Context, sc *session.Context, in validation.NewPost, media *api.Upload) (view.Outcome, error) {
	form := formFor(s.forms, s.forms.post, sc.SessionID, func() *view.PostForm {
		return view.NewPostForm(s.posts, s.cache, s.orphans)
	})

	var out view.Outcome
	res, post, err := form.Submit(ctx, sc, in, media, &out)
	if err != nil {
		return view.Outcome{}, err
	}
	out.Apply(res)
	if res.State == view.FormSuccess {
		out.Data = post
		s.activity.record(ctx, models.EventPostCreated, sc.UserID(), "post created", map[string]string{"post_id": post.ID})
	}
	return out, nil
}
