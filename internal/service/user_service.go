package service

import (
	"context"
	"errors"
	"slices"

	"dismoment/internal/api"
	"dismoment/internal/models"
	"dismoment/internal/query"
	"dismoment/internal/session"
	"dismoment/internal/validation"
	"dismoment/internal/view"
)

// userAPI is the user side of the adapter.
type userAPI interface {
	view.UserReader
	view.Follower
	view.ProfileEditor
}

// UserService serves profiles, follows and the edit-profile dialog.
type UserService struct {
	users    userAPI
	posts    view.PostReader
	feed     *view.FeedView
	cache    *query.Client
	forms    *formRegistry
	orphans  view.OrphanRecorder
	activity *activity
	follow   *view.FollowButton
}

func NewUserService(users userAPI, posts view.PostReader, feed *view.FeedView, cache *query.Client, forms *formRegistry, orphans view.OrphanRecorder, a *activity) *UserService {
	if forms == nil {
		forms = newFormRegistry(0)
	}
	return &UserService{
		users:    users,
		posts:    posts,
		feed:     feed,
		cache:    cache,
		forms:    forms,
		orphans:  orphans,
		activity: a,
		follow:   view.NewFollowButton(users, cache),
	}
}

func (s *UserService) GetUser(ctx context.Context, sc *session.Context, id string) (models.User, error) {
	st := query.New(s.cache, query.NewKey(query.OpUser, id), func(ctx context.Context) (models.User, error) {
		return s.users.GetUserByID(ctx, id)
	}).Load(sc.Backend(ctx))
	return st.Data, st.Err
}

// Profile loads the profile page. Each session keeps its own ProfileView so
// moving to another user refetches instead of serving the previous cache.
func (s *UserService) Profile(ctx context.Context, sc *session.Context, id string) view.Profile {
	pv := formFor(s.forms, s.forms.profileView, sc.SessionID, func() *view.ProfileView {
		return view.NewProfileView(s.users, s.posts, s.cache)
	})
	return pv.Load(ctx, sc, id)
}

func (s *UserService) PostsByAuthor(ctx context.Context, sc *session.Context, id string) view.PostList {
	return s.feed.ByAuthor(ctx, sc, id)
}

// ToggleFollow follows or unfollows targetID. The updated target is returned
// in Outcome.Data; a failure becomes an error toast.
func (s *UserService) ToggleFollow(ctx context.Context, sc *session.Context, targetID string) (view.Outcome, error) {
	var out view.Outcome
	target, err := s.follow.Toggle(ctx, sc, targetID, &out)
	if errors.Is(err, view.ErrBusy) {
		return view.Outcome{}, err
	}
	if err != nil {
		out.State = view.FormFailure
		return out, nil
	}

	out.State = view.FormSuccess
	out.Data = target
	typ, desc := models.EventUnfollow, "unfollowed user"
	if slices.Contains(sc.User.Following, targetID) {
		typ, desc = models.EventFollow, "followed user"
	}
	s.activity.record(ctx, typ, sc.UserID(), desc, map[string]string{"target_id": targetID})
	return out, nil
}

// EditProfile submits the edit-profile dialog of the session. The saved
// user is returned in Outcome.Data.
func (s *UserService) EditProfile(ctx context.Context, sc *session.Context, in validation.Profile, avatar *api.Upload) (view.Outcome, error) {
	form := formFor(s.forms, s.forms.profile, sc.SessionID, func() *view.ProfileForm {
		return view.NewProfileForm(s.users, s.cache, s.orphans)
	})

	var out view.Outcome
	res, user, err := form.Submit(ctx, sc, in, avatar, &out)
	if err != nil {
		return view.Outcome{}, err
	}
	out.Apply(res)
	if res.State == view.FormSuccess {
		out.Data = user
		s.activity.record(ctx, models.EventProfileEdit, sc.UserID(), "profile updated", nil)
	}
	return out, nil
}

type previewer interface {
	GetFilePreview(fileID string) (string, error)
}

// FileService resolves stored media.
type FileService struct {
	files previewer
}

func NewFileService(files previewer) *FileService {
	return &FileService{files: files}
}

// PreviewURL returns the URL of a scaled preview of the file.
func (s *FileService) PreviewURL(fileID string) (string, error) {
	return s.files.GetFilePreview(fileID)
}
