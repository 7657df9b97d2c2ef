package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// Account is a backend identity (credentials live only in the backend).
type Account struct {
	ID    string
	Name  string
	Email string
}

// AccountSession is a backend session created by email sign-in.
type AccountSession struct {
	ID        string
	UserID    string
	Secret    string
	ExpiresAt time.Time
}

// CreateAccount registers a new account with the given id.
func (c *Client) CreateAccount(ctx context.Context, id, email, password, name string) (*Account, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/account", map[string]string{
		"userId":   id,
		"email":    email,
		"password": password,
		"name":     name,
	}, authKey)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return parseAccount(body), nil
}

// CreateEmailSession signs an account in and returns the session with its secret.
func (c *Client) CreateEmailSession(ctx context.Context, email, password string) (*AccountSession, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/account/sessions/email", map[string]string{
		"email":    email,
		"password": password,
	}, authKey)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	res := gjson.ParseBytes(body)
	s := &AccountSession{
		ID:     res.Get("\\$id").String(),
		UserID: res.Get("userId").String(),
		Secret: res.Get("secret").String(),
	}
	if exp := res.Get("expire").String(); exp != "" {
		t, err := time.Parse(time.RFC3339Nano, exp)
		if err != nil {
			return nil, fmt.Errorf("parse session expiry %q: %w", exp, err)
		}
		s.ExpiresAt = t.UTC()
	}
	return s, nil
}

// GetAccount returns the account of the session carried by ctx.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/account", nil, nil, authSession)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return parseAccount(body), nil
}

// DeleteSession removes a session; "current" means the one carried by ctx.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/account/sessions/"+url.PathEscape(sessionID), nil, nil, authSession)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

func parseAccount(body []byte) *Account {
	res := gjson.ParseBytes(body)
	return &Account{
		ID:    res.Get("\\$id").String(),
		Name:  res.Get("name").String(),
		Email: res.Get("email").String(),
	}
}
