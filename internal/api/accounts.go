package api

import (
	"context"
	"fmt"
	"strings"

	"dismoment/internal/backend"
	"dismoment/internal/models"
)

// NewUser is the signup payload.
type NewUser struct {
	Name     string
	Username string
	Email    string
	Password string
}

// Credentials identify an account by username or email.
type Credentials struct {
	Identifier string
	Password   string
}

// CreateUserAccount registers an account and saves its profile document.
func (a *Adapter) CreateUserAccount(ctx context.Context, u NewUser) (models.User, error) {
	name := u.Name
	if name == "" {
		name = u.Username
	}

	acc, err := a.be.CreateAccount(ctx, a.newID(), u.Email, u.Password, name)
	if err != nil {
		return models.User{}, a.done("create_account", fmt.Errorf("create account: %w", err))
	}

	doc, err := a.be.CreateDocument(ctx, a.col.DatabaseID, a.col.Users, a.newID(), map[string]any{
		"accountId": acc.ID,
		"name":      acc.Name,
		"email":     acc.Email,
		"username":  u.Username,
		"imageUrl":  a.be.InitialsAvatarURL(acc.Name),
		"followers": []string{},
		"following": []string{},
	})
	if err != nil {
		return models.User{}, a.done("create_account", fmt.Errorf("save user %q: %w", u.Username, err))
	}

	user, err := userFromDoc(doc)
	return user, a.done("create_account", err)
}

// SignInAccount opens a backend session. A username is resolved to its email first.
func (a *Adapter) SignInAccount(ctx context.Context, c Credentials) (*backend.AccountSession, error) {
	email := strings.TrimSpace(c.Identifier)
	if !strings.Contains(email, "@") {
		u, err := a.userBy(ctx, "username", email)
		if err != nil {
			return nil, a.done("sign_in", err)
		}
		email = u.Email
	}

	s, err := a.be.CreateEmailSession(ctx, email, c.Password)
	if err != nil {
		return nil, a.done("sign_in", fmt.Errorf("create session: %w", err))
	}
	return s, a.done("sign_in", nil)
}

// SignOutAccount deletes the session carried by ctx.
func (a *Adapter) SignOutAccount(ctx context.Context) error {
	if err := a.be.DeleteSession(ctx, "current"); err != nil {
		return a.done("sign_out", fmt.Errorf("delete session: %w", err))
	}
	return a.done("sign_out", nil)
}

// GetCurrentUser returns the profile of the account signed in on ctx.
func (a *Adapter) GetCurrentUser(ctx context.Context) (models.User, error) {
	acc, err := a.be.GetAccount(ctx)
	if err != nil {
		return models.User{}, a.done("current_user", fmt.Errorf("get account: %w", err))
	}
	u, err := a.userBy(ctx, "accountId", acc.ID)
	return u, a.done("current_user", err)
}

// GetUserByID fetches one profile.
func (a *Adapter) GetUserByID(ctx context.Context, id string) (models.User, error) {
	doc, err := a.be.GetDocument(ctx, a.col.DatabaseID, a.col.Users, id)
	if err != nil {
		if backend.IsNotFound(err) {
			return models.User{}, a.done("get_user", fmt.Errorf("user %q: %w", id, ErrUserNotFound))
		}
		return models.User{}, a.done("get_user", fmt.Errorf("get user %q: %w", id, err))
	}
	u, err := userFromDoc(doc)
	return u, a.done("get_user", err)
}

func (a *Adapter) userBy(ctx context.Context, attribute, value string) (models.User, error) {
	list, err := a.be.ListDocuments(ctx, a.col.DatabaseID, a.col.Users,
		backend.Equal(attribute, value), backend.Limit(1))
	if err != nil {
		return models.User{}, fmt.Errorf("find user by %s: %w", attribute, err)
	}
	if len(list.Documents) == 0 {
		return models.User{}, fmt.Errorf("user with %s %q: %w", attribute, value, ErrUserNotFound)
	}
	return userFromDoc(list.Documents[0])
}
