// Package backend is a thin REST client for the hosted backend service
// (accounts, document collections, file buckets, avatars).
//
// The client owns no business rules. It shapes requests, attaches the project,
// API key and session headers, and decodes error bodies into *Error unchanged.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	headerProject = "X-Appwrite-Project"
	headerKey     = "X-Appwrite-Key"
	headerSession = "X-Appwrite-Session"

	defaultTimeout = 30 * time.Second
)

// Config holds client configuration.
type Config struct {
	Endpoint   string // e.g. https://cloud.example.com/v1
	ProjectID  string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client performs backend REST calls.
type Client struct {
	endpoint   string
	projectID  string
	apiKey     string
	httpClient *http.Client
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project id is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		projectID:  cfg.ProjectID,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

type sessionKey struct{}

// WithSession returns a context whose backend calls act as the given session.
func WithSession(ctx context.Context, secret string) context.Context {
	return context.WithValue(ctx, sessionKey{}, secret)
}

// SessionFrom returns the session secret carried by ctx, if any.
func SessionFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(sessionKey{}).(string)
	return s, ok && s != ""
}

// auth selects which credentials a request carries.
type auth int

const (
	authKey     auth = iota // API key, plus session when present
	authSession             // session only; account endpoints act as the user
)

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, mode auth) (*http.Request, error) {
	reqURL := c.endpoint + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerProject, c.projectID)
	if mode == authKey && c.apiKey != "" {
		req.Header.Set(headerKey, c.apiKey)
	}
	if secret, ok := SessionFrom(ctx); ok {
		req.Header.Set(headerSession, secret)
	}
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any, mode auth) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, nil, body, mode)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes req and returns the body of a 2xx response, or *Error.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp.StatusCode, body)
	}
	return body, nil
}

// publicURL builds an absolute URL that a browser can load directly.
func (c *Client) publicURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("project", c.projectID)
	return c.endpoint + path + "?" + query.Encode()
}
