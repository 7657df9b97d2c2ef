// Package session carries the signed-in state of one browser explicitly.
//
// A Context is created by Manager.Begin after a successful sign-in, rebuilt by
// Manager.Restore on every request, and torn down by Manager.End on sign-out.
// Nothing about who is signed in lives in package state.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dismoment/internal/api"
	"dismoment/internal/backend"
	"dismoment/internal/logger"
	"dismoment/internal/models"
	"dismoment/internal/query"
	"dismoment/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

const DefaultTTL = 7 * 24 * time.Hour

// Context is the auth object handed to everything acting for a user.
type Context struct {
	SessionID string
	Secret    string
	ExpiresAt time.Time
	User      models.User
}

// Backend returns ctx carrying the backend session secret.
func (c *Context) Backend(ctx context.Context) context.Context {
	return backend.WithSession(ctx, c.Secret)
}

// UserID is the id of the signed-in user's profile document.
func (c *Context) UserID() string { return c.User.ID }

// Accounts is the part of the adapter sessions depend on.
type Accounts interface {
	GetCurrentUser(ctx context.Context) (models.User, error)
	SignOutAccount(ctx context.Context) error
}

var _ Accounts = (*api.Adapter)(nil)

type Manager struct {
	store    repository.SessionRepo
	accounts Accounts
	cache    *query.Client
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
	log      *logger.Logger
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

func WithLogger(log *logger.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager builds a manager. cache may be nil, in which case every Restore
// asks the backend for the current user.
func NewManager(store repository.SessionRepo, accounts Accounts, cache *query.Client, ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		store:    store,
		accounts: accounts,
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin stores a gateway session for a freshly created backend session.
// The session lives for the configured TTL or until the backend session
// expires, whichever comes first.
func (m *Manager) Begin(ctx context.Context, bs *backend.AccountSession) (*Context, error) {
	if bs == nil || bs.Secret == "" {
		return nil, errors.New("begin session: backend session has no secret")
	}

	sc := &Context{SessionID: m.newID(), Secret: bs.Secret}
	user, err := m.currentUser(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	sc.User = user

	now := m.now().UTC()
	sc.ExpiresAt = now.Add(m.ttl)
	if !bs.ExpiresAt.IsZero() && bs.ExpiresAt.Before(sc.ExpiresAt) {
		sc.ExpiresAt = bs.ExpiresAt.UTC()
	}

	err = m.store.Create(ctx, models.Session{
		ID:        sc.SessionID,
		AccountID: user.AccountID,
		UserID:    user.ID,
		Secret:    sc.Secret,
		ExpiresAt: sc.ExpiresAt,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	return sc, nil
}

// Restore rebuilds the Context of a stored session. Expired sessions are
// deleted and reported as ErrExpired.
func (m *Manager) Restore(ctx context.Context, sessionID string) (*Context, error) {
	s, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if s.Expired(m.now()) {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			m.log.Warnw("expired session not deleted", "session_id", s.ID, "err", err)
		}
		m.forget(s.ID)
		return nil, ErrExpired
	}

	sc := &Context{SessionID: s.ID, Secret: s.Secret, ExpiresAt: s.ExpiresAt}
	user, err := m.currentUser(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	sc.User = user
	return sc, nil
}

// End signs out of the backend and deletes the stored session. The local
// session is removed even when the backend call fails.
func (m *Manager) End(ctx context.Context, sc *Context) error {
	var errs []error
	if err := m.accounts.SignOutAccount(sc.Backend(ctx)); err != nil {
		errs = append(errs, err)
	}
	if err := m.store.Delete(ctx, sc.SessionID); err != nil {
		errs = append(errs, err)
	}
	m.forget(sc.SessionID)
	if len(errs) > 0 {
		return fmt.Errorf("end session: %w", errors.Join(errs...))
	}
	return nil
}

// Purge removes every session expired at now.
func (m *Manager) Purge(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

func (m *Manager) currentUser(ctx context.Context, sc *Context) (models.User, error) {
	if m.cache == nil {
		return m.accounts.GetCurrentUser(sc.Backend(ctx))
	}
	q := query.New(m.cache, currentUserKey(sc.SessionID), func(ctx context.Context) (models.User, error) {
		return m.accounts.GetCurrentUser(sc.Backend(ctx))
	})
	st := q.Load(ctx)
	if st.IsError {
		return models.User{}, st.Err
	}
	return st.Data, nil
}

func (m *Manager) forget(sessionID string) {
	if m.cache != nil {
		m.cache.Invalidate(currentUserKey(sessionID))
	}
}

func currentUserKey(sessionID string) query.Key {
	return query.NewKey(query.OpCurrentUser, sessionID)
}
