package view

import (
	"context"
	"slices"
	"sync"

	"dismoment/internal/models"
	"dismoment/internal/query"
	"dismoment/internal/session"
)

// Follower changes follow relations.
type Follower interface {
	FollowUser(ctx context.Context, viewerID, targetID string) (models.User, error)
	UnfollowUser(ctx context.Context, viewerID, targetID string) (models.User, error)
}

// FollowButton toggles whether the signed-in user follows another user.
// A toggle for a pair that is still in flight is rejected with ErrBusy, so a
// double click results in one backend call.
type FollowButton struct {
	users Follower
	cache *query.Client

	mu       sync.Mutex
	inflight map[[2]string]struct{}
}

func NewFollowButton(users Follower, cache *query.Client) *FollowButton {
	return &FollowButton{users: users, cache: cache, inflight: map[[2]string]struct{}{}}
}

// Toggle unfollows targetID when the viewer already follows it and follows
// it otherwise. It returns the updated target.
func (b *FollowButton) Toggle(ctx context.Context, sc *session.Context, targetID string, fx Notifier) (models.User, error) {
	pair := [2]string{sc.UserID(), targetID}
	b.mu.Lock()
	if _, busy := b.inflight[pair]; busy {
		b.mu.Unlock()
		return models.User{}, ErrBusy
	}
	b.inflight[pair] = struct{}{}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.inflight, pair)
		b.mu.Unlock()
	}()

	following := slices.Contains(sc.User.Following, targetID)
	call := b.users.FollowUser
	if following {
		call = b.users.UnfollowUser
	}

	target, err := query.Mutate(sc.Backend(ctx), b.cache, func(ctx context.Context) (models.User, error) {
		return call(ctx, sc.UserID(), targetID)
	}, query.NewKey(query.OpUser, targetID), query.NewKey(query.OpUser, sc.UserID()), query.OpCurrentUser)
	if err != nil {
		fx.Notify(NotifyError, errorMessage(err, "Please try again."))
		return models.User{}, err
	}

	if following {
		sc.User.Following = slices.DeleteFunc(slices.Clone(sc.User.Following), func(id string) bool { return id == targetID })
	} else {
		sc.User.Following = append(slices.Clone(sc.User.Following), targetID)
	}
	return target, nil
}
