// Package api maps each user intent to calls against the hosted backend.
//
// The adapter never retries and never queues. Backend failures come back
// wrapped with the operation name, so errors.As still finds *backend.Error.
// Multi-step operations undo earlier steps when a later step fails; see
// CompensationError for what happens when the undo itself fails.
package api

import (
	"context"
	"errors"
	"io"

	"dismoment/internal/backend"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrPostNotFound = errors.New("post not found")
	ErrSelfFollow   = errors.New("cannot follow yourself")
	ErrNoMedia      = errors.New("post media is required")
)

// Backend is the subset of the backend client the adapter calls.
type Backend interface {
	CreateAccount(ctx context.Context, id, email, password, name string) (*backend.Account, error)
	CreateEmailSession(ctx context.Context, email, password string) (*backend.AccountSession, error)
	GetAccount(ctx context.Context) (*backend.Account, error)
	DeleteSession(ctx context.Context, sessionID string) error

	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (backend.Document, error)
	GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (backend.Document, error)
	ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...backend.Query) (*backend.DocumentList, error)
	UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (backend.Document, error)

	CreateFile(ctx context.Context, bucketID, fileID, name, contentType string, content io.Reader) (*backend.StoredFile, error)
	DeleteFile(ctx context.Context, bucketID, fileID string) error
	FilePreviewURL(bucketID, fileID string, opt backend.PreviewOptions) string
	InitialsAvatarURL(name string) string
}

var _ Backend = (*backend.Client)(nil)

// Collections names the backend resources the adapter works on.
type Collections struct {
	DatabaseID string
	Users      string
	Posts      string
	Media      string // storage bucket
}

const (
	recentPostsLimit  = 20
	explorePostsLimit = 50
	mostLikedScan     = 100
	mostLikedLimit    = 10
)

// Adapter is the set of intent functions.
type Adapter struct {
	be      Backend
	col     Collections
	newID   func() string
	observe func(op string, err error)
}

type Option func(*Adapter)

// WithIDGenerator overrides how document and file ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(a *Adapter) { a.newID = fn }
}

// WithObserver is called once per adapter operation with its outcome.
func WithObserver(fn func(op string, err error)) Option {
	return func(a *Adapter) { a.observe = fn }
}

func New(be Backend, col Collections, opts ...Option) *Adapter {
	a := &Adapter{
		be:      be,
		col:     col,
		newID:   uuid.NewString,
		observe: func(string, error) {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// done reports the outcome of op and passes err through.
func (a *Adapter) done(op string, err error) error {
	a.observe(op, err)
	return err
}
