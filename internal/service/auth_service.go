package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dismoment/internal/models"
	"dismoment/internal/session"
	"dismoment/internal/validation"
	"dismoment/internal/view"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// TokenConfig configures the gateway access tokens.
type TokenConfig struct {
	SigningKey string
	TTL        time.Duration
}

// AuthResult is the response to a sign-up or sign-in. Token and User are
// set only when a session was started.
type AuthResult struct {
	view.Outcome
	Token     string       `json:"token,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	User      *models.User `json:"user,omitempty"`
}

// authSessions is the part of session.Manager the auth flows use.
type authSessions interface {
	view.Sessions
	Restore(ctx context.Context, sessionID string) (*session.Context, error)
	End(ctx context.Context, sc *session.Context) error
}

// AuthService handles sign-up, sign-in and the tokens that carry a
// gateway session between requests.
type AuthService struct {
	accounts view.Accounts
	sessions authSessions
	forms    *formRegistry
	activity *activity
	tokens   TokenConfig
	now      func() time.Time
}

func NewAuthService(accounts view.Accounts, sessions authSessions, forms *formRegistry, a *activity, tokens TokenConfig) *AuthService {
	if tokens.TTL <= 0 {
		tokens.TTL = defaultTokenTTL
	}
	if forms == nil {
		forms = newFormRegistry(0)
	}
	return &AuthService{
		accounts: accounts,
		sessions: sessions,
		forms:    forms,
		activity: a,
		tokens:   tokens,
		now:      time.Now,
	}
}

// authFormKey identifies an auth form by the client address and the account
// it is for, so people sharing an address never share a form.
func authFormKey(client, identity string) string {
	return client + "|" + strings.ToLower(strings.TrimSpace(identity))
}

// SignUp submits the signup form of client. It returns view.ErrBusy while an
// earlier signup for the same username from the same client is running.
func (s *AuthService) SignUp(ctx context.Context, client string, in validation.Signup) (AuthResult, error) {
	form := formFor(s.forms, s.forms.signup, authFormKey(client, in.Username), func() *view.SignupForm {
		return view.NewSignupForm(s.accounts, s.sessions)
	})

	var out view.Outcome
	res, sc, err := form.Submit(ctx, in, &out)
	if err != nil {
		return AuthResult{}, err
	}
	out.Apply(res)
	if sc == nil {
		return AuthResult{Outcome: out}, nil
	}
	s.activity.record(ctx, models.EventSignUp, sc.UserID(), "account created", map[string]string{"username": in.Username})
	return s.authenticated(out, sc)
}

// SignIn submits the login form of client for the identifier in in.Username.
func (s *AuthService) SignIn(ctx context.Context, client string, in validation.Login) (AuthResult, error) {
	form := formFor(s.forms, s.forms.login, authFormKey(client, in.Username), func() *view.LoginForm {
		return view.NewLoginForm(s.accounts, s.sessions)
	})

	var out view.Outcome
	res, sc, err := form.Submit(ctx, in, &out)
	if err != nil {
		return AuthResult{}, err
	}
	out.Apply(res)
	if sc == nil {
		return AuthResult{Outcome: out}, nil
	}
	s.activity.record(ctx, models.EventSignIn, sc.UserID(), "signed in", nil)
	return s.authenticated(out, sc)
}

func (s *AuthService) authenticated(out view.Outcome, sc *session.Context) (AuthResult, error) {
	token, exp, err := s.issueToken(sc.SessionID, sc.ExpiresAt)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	user := sc.User
	return AuthResult{Outcome: out, Token: token, ExpiresAt: &exp, User: &user}, nil
}

// SignOut ends the session and forgets its forms. Local state is cleared
// even when the backend sign-out fails.
func (s *AuthService) SignOut(ctx context.Context, sc *session.Context) error {
	err := s.sessions.End(ctx, sc)
	s.forms.drop(sc.SessionID)
	s.activity.record(ctx, models.EventSignOut, sc.UserID(), "signed out", nil)
	return err
}

func (s *AuthService) Restore(ctx context.Context, sessionID string) (*session.Context, error) {
	return s.sessions.Restore(ctx, sessionID)
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// ParseToken parses JWT and returns the gateway session id.
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.tokens.SigningKey), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}

// issueToken signs a token that expires with the session or after the
// token TTL, whichever comes first.
func (s *AuthService) issueToken(sessionID string, sessionExpiry time.Time) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.tokens.TTL)
	if !sessionExpiry.IsZero() && sessionExpiry.Before(exp) {
		exp = sessionExpiry
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		SessionID: sessionID,
	})
	signed, err := token.SignedString([]byte(s.tokens.SigningKey))
	return signed, exp, err
}
