package service

import (
	"context"
	"time"

	"dismoment/internal/api"
	"dismoment/internal/logger"
	"dismoment/internal/models"
	"dismoment/internal/query"
	"dismoment/internal/repository"
	"dismoment/internal/session"
	"dismoment/internal/validation"
	"dismoment/internal/view"
)

// Authorization covers the auth forms, gateway tokens and session restore.
type Authorization interface {
	SignUp(ctx context.Context, client string, in validation.Signup) (AuthResult, error)
	SignIn(ctx context.Context, client string, in validation.Login) (AuthResult, error)
	SignOut(ctx context.Context, sc *session.Context) error
	ParseToken(accessToken string) (string, error)
	Restore(ctx context.Context, sessionID string) (*session.Context, error)
}

// Posts serves feeds, single posts, likes and the create-post form.
type Posts interface {
	Recent(ctx context.Context, sc *session.Context) view.PostList
	Explore(ctx context.Context, sc *session.Context) view.PostList
	MostLiked(ctx context.Context, sc *session.Context) view.PostList
	SearchPosts(ctx context.Context, sc *session.Context, term string) view.PostList
	GetPost(ctx context.Context, sc *session.Context, id string) (models.Post, error)
	CreatePost(ctx context.Context, sc *session.Context, in validation.NewPost, media *api.Upload) (view.Outcome, error)
	ToggleLike(ctx context.Context, sc *session.Context, postID string) (models.Post, error)
}

// Users serves profiles, follows and the edit-profile dialog.
type Users interface {
	GetUser(ctx context.Context, sc *session.Context, id string) (models.User, error)
	Profile(ctx context.Context, sc *session.Context, id string) view.Profile
	PostsByAuthor(ctx context.Context, sc *session.Context, id string) view.PostList
	ToggleFollow(ctx context.Context, sc *session.Context, targetID string) (view.Outcome, error)
	EditProfile(ctx context.Context, sc *session.Context, in validation.Profile, avatar *api.Upload) (view.Outcome, error)
}

// Files resolves stored media.
type Files interface {
	PreviewURL(fileID string) (string, error)
}

// EventLog exposes the activity log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ActivityEvent, error)
}

// SearchSession is one open search overlay.
type SearchSession interface {
	Input(value string)
	Trending()
	Close()
}

// SearchOverlay opens the debounced search of one connection.
type SearchOverlay interface {
	Open(ctx context.Context, sc *session.Context, emit func(view.SearchResult)) SearchSession
}

// Sweeper runs the background loop that retries orphan cleanup and purges
// expired sessions. Stop via context cancellation in main() for graceful shutdown.
type Sweeper interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Posts
	Users
	Files
	EventLog
	SearchOverlay
	Sweeper
}

// Deps are the collaborators NewService wires together.
type Deps struct {
	Adapter  *api.Adapter
	Cache    *query.Client
	Sessions *session.Manager
	Log      *logger.Logger

	SigningKey     string
	TokenTTL       time.Duration
	SearchDebounce time.Duration
	SweepBatch     int
	FormCacheSize  int
}

// NewService wires the repository layer, the adapter and the views into
// concrete services.
func NewService(repos *repository.Repository, d Deps) *Service {
	activity := newActivity(repos.Activity, d.Log)
	orphans := newOrphanLedger(repos.Orphans, activity, d.Log)
	forms := newFormRegistry(d.FormCacheSize)
	feed := view.NewFeedView(d.Adapter, d.Adapter, d.Cache)

	return &Service{
		Authorization: NewAuthService(d.Adapter, d.Sessions, forms, activity, TokenConfig{SigningKey: d.SigningKey, TTL: d.TokenTTL}),
		Posts:         NewFeedService(feed, d.Adapter, d.Cache, forms, orphans, activity),
		Users:         NewUserService(d.Adapter, d.Adapter, feed, d.Cache, forms, orphans, activity),
		Files:         NewFileService(d.Adapter),
		EventLog:      NewEventLogService(repos.Activity),
		SearchOverlay: NewSearchService(feed, d.SearchDebounce),
		Sweeper:       NewSweeperService(repos.Orphans, d.Adapter, d.Sessions, activity, d.Log.Component("sweeper"), d.SweepBatch),
	}
}
