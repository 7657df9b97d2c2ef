package view

import (
	"context"
	"sync"

	"dismoment/internal/api"
	"dismoment/internal/backend"
	"dismoment/internal/models"
	"dismoment/internal/session"
	"dismoment/internal/validation"
)

const (
	msgSignUpFailed = "Sign up failed. Please try again"
	msgSignInFailed = "Sign in failed. Please try again."
)

// Accounts is the part of the adapter the auth forms call.
type Accounts interface {
	CreateUserAccount(ctx context.Context, u api.NewUser) (models.User, error)
	SignInAccount(ctx context.Context, c api.Credentials) (*backend.AccountSession, error)
}

// Sessions starts a gateway session once the backend accepted the credentials.
type Sessions interface {
	Begin(ctx context.Context, bs *backend.AccountSession) (*session.Context, error)
}

// LoginForm is the sign-in page.
type LoginForm struct {
	machine
	accounts Accounts
	sessions Sessions

	mu     sync.Mutex
	values validation.Login
}

func NewLoginForm(accounts Accounts, sessions Sessions) *LoginForm {
	return &LoginForm{accounts: accounts, sessions: sessions}
}

// Values returns what the form currently holds; empty after a successful
// sign-in. The password is never kept.
func (f *LoginForm) Values() validation.Login {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Submit validates in and signs in. Invalid input never reaches the adapter.
func (f *LoginForm) Submit(ctx context.Context, in validation.Login, fx Effects) (Result, *session.Context, error) {
	if err := f.begin(); err != nil {
		return Result{}, nil, err
	}
	f.mu.Lock()
	f.values = validation.Login{Username: in.Username}
	f.mu.Unlock()

	if fe := validation.Validate(in); fe != nil {
		r := f.finish(FormIdle)
		r.FieldErrors = fe
		return r, nil, nil
	}

	bs, err := f.accounts.SignInAccount(ctx, api.Credentials{Identifier: in.Username, Password: in.Password})
	if err != nil {
		fx.Notify(NotifyError, errorMessage(err, msgSignInFailed))
		return f.finish(FormFailure), nil, nil
	}
	sc, err := f.sessions.Begin(ctx, bs)
	if err != nil {
		fx.Notify(NotifyError, msgSignInFailed)
		return f.finish(FormFailure), nil, nil
	}

	f.mu.Lock()
	f.values = validation.Login{}
	f.mu.Unlock()
	fx.Navigate(RouteHome)

	r := f.finish(FormSuccess)
	r.Reset = true
	return r, sc, nil
}

// SignupForm is the account creation page. A new account is signed in
// straight away.
type SignupForm struct {
	machine
	accounts Accounts
	sessions Sessions

	mu     sync.Mutex
	values validation.Signup
}

func NewSignupForm(accounts Accounts, sessions Sessions) *SignupForm {
	return &SignupForm{accounts: accounts, sessions: sessions}
}

// Values returns the entered username and email.
func (f *SignupForm) Values() validation.Signup {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Submit creates the account, then signs it in. When the account exists but
// sign-in fails the user stays on the signup page.
func (f *SignupForm) Submit(ctx context.Context, in validation.Signup, fx Effects) (Result, *session.Context, error) {
	if err := f.begin(); err != nil {
		return Result{}, nil, err
	}
	f.mu.Lock()
	f.values = validation.Signup{Username: in.Username, Email: in.Email}
	f.mu.Unlock()

	if fe := validation.Validate(in); fe != nil {
		r := f.finish(FormIdle)
		r.FieldErrors = fe
		return r, nil, nil
	}

	if _, err := f.accounts.CreateUserAccount(ctx, api.NewUser{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
	}); err != nil {
		fx.Notify(NotifyError, msgSignUpFailed)
		return f.finish(FormFailure), nil, nil
	}

	bs, err := f.accounts.SignInAccount(ctx, api.Credentials{Identifier: in.Email, Password: in.Password})
	if err != nil {
		fx.Notify(NotifyError, msgSignInFailed)
		return f.finish(FormFailure), nil, nil
	}
	sc, err := f.sessions.Begin(ctx, bs)
	if err != nil {
		fx.Notify(NotifyError, msgSignInFailed)
		return f.finish(FormFailure), nil, nil
	}

	f.mu.Lock()
	f.values = validation.Signup{}
	f.mu.Unlock()
	fx.Navigate(RouteHome)

	r := f.finish(FormSuccess)
	r.Reset = true
	return r, sc, nil
}
