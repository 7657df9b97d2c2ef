package view

import (
	"context"
	"errors"

	"dismoment/internal/api"
	"dismoment/internal/models"
	"dismoment/internal/query"
	"dismoment/internal/session"
	"dismoment/internal/validation"
)

const (
	msgProfileUpdated = "User updated successfully"
	msgPostFailed     = "Please try again."
	msgProfileFailed  = "Profile update failed. Please try again."
)

// OrphanRecorder is told about files a failed compensation left behind.
type OrphanRecorder interface {
	RecordOrphan(ctx context.Context, ce *api.CompensationError)
}

type noOrphans struct{}

func (noOrphans) RecordOrphan(context.Context, *api.CompensationError) {}

func recordOrphan(ctx context.Context, rec OrphanRecorder, err error) {
	var ce *api.CompensationError
	if errors.As(err, &ce) && ce.File != nil {
		rec.RecordOrphan(ctx, ce)
	}
}

// Publisher creates posts.
type Publisher interface {
	CreatePost(ctx context.Context, p api.NewPost) (models.Post, error)
}

// PostForm is the create-post page.
type PostForm struct {
	machine
	posts   Publisher
	cache   *query.Client
	orphans OrphanRecorder
}

func NewPostForm(posts Publisher, cache *query.Client, orphans OrphanRecorder) *PostForm {
	if orphans == nil {
		orphans = noOrphans{}
	}
	return &PostForm{posts: posts, cache: cache, orphans: orphans}
}

// Submit publishes a post for the signed-in user. If the post cannot be
// saved the adapter has already removed the uploaded media by the time the
// failure toast is shown.
func (f *PostForm) Submit(ctx context.Context, sc *session.Context, in validation.NewPost, media *api.Upload, fx Effects) (Result, models.Post, error) {
	if err := f.begin(); err != nil {
		return Result{}, models.Post{}, err
	}

	fe := validation.Validate(in)
	if media == nil {
		if fe == nil {
			fe = validation.FieldErrors{}
		}
		fe["file"] = "file is required"
	}
	if fe != nil {
		r := f.finish(FormIdle)
		r.FieldErrors = fe
		return r, models.Post{}, nil
	}

	post, err := query.Mutate(sc.Backend(ctx), f.cache, func(ctx context.Context) (models.Post, error) {
		return f.posts.CreatePost(ctx, api.NewPost{
			CreatorID: sc.UserID(),
			Caption:   in.Caption,
			Location:  in.Location,
			Tags:      in.Tags,
			Media:     media,
		})
	},
		query.OpRecentPosts, query.OpExplorePosts, query.OpMostLiked, query.OpSearchPosts,
		query.NewKey(query.OpPostsByAuthor, sc.UserID()),
	)
	if err != nil {
		recordOrphan(ctx, f.orphans, err)
		fx.Notify(NotifyError, errorMessage(err, msgPostFailed))
		return f.finish(FormFailure), models.Post{}, nil
	}

	fx.Navigate(RouteHome)
	r := f.finish(FormSuccess)
	r.Reset = true
	return r, post, nil
}

// ProfileEditor updates profiles and drops replaced avatars.
type ProfileEditor interface {
	EditProfile(ctx context.Context, upd api.ProfileUpdate) (models.User, error)
	DiscardFile(ctx context.Context, op, fileID string) error
}

// ProfileForm is the edit-profile dialog.
type ProfileForm struct {
	machine
	users   ProfileEditor
	cache   *query.Client
	orphans OrphanRecorder
}

func NewProfileForm(users ProfileEditor, cache *query.Client, orphans OrphanRecorder) *ProfileForm {
	if orphans == nil {
		orphans = noOrphans{}
	}
	return &ProfileForm{users: users, cache: cache, orphans: orphans}
}

// Submit saves the signed-in user's profile. On success the dialog closes;
// on failure it stays open with the entered values. A replaced avatar is
// deleted afterwards; if that fails it goes to the orphan ledger.
func (f *ProfileForm) Submit(ctx context.Context, sc *session.Context, in validation.Profile, avatar *api.Upload, fx Effects) (Result, models.User, error) {
	if err := f.begin(); err != nil {
		return Result{}, models.User{}, err
	}
	if fe := validation.Validate(in); fe != nil {
		r := f.finish(FormIdle)
		r.FieldErrors = fe
		return r, models.User{}, nil
	}
	previousImage := sc.User.ImageID

	user, err := query.Mutate(sc.Backend(ctx), f.cache, func(ctx context.Context) (models.User, error) {
		return f.users.EditProfile(ctx, api.ProfileUpdate{
			UserID:   sc.UserID(),
			Username: in.Username,
			Email:    in.Email,
			Name:     in.Name,
			Bio:      in.Bio,
			Avatar:   avatar,
		})
	}, query.NewKey(query.OpUser, sc.UserID()), query.OpCurrentUser)
	if err != nil {
		recordOrphan(ctx, f.orphans, err)
		fx.Notify(NotifyError, errorMessage(err, msgProfileFailed))
		return f.finish(FormFailure), models.User{}, nil
	}

	sc.User = user
	if avatar != nil && previousImage != "" && previousImage != user.ImageID {
		recordOrphan(ctx, f.orphans, f.users.DiscardFile(sc.Backend(ctx), "replace avatar", previousImage))
	}
	fx.Notify(NotifySuccess, msgProfileUpdated)
	r := f.finish(FormSuccess)
	r.Close = true
	return r, user, nil
}
