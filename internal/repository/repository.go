package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dismoment/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepo interface {
	Create(ctx context.Context, s models.Session) error
	Get(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type ActivityRepo interface {
	Append(ctx context.Context, e models.ActivityEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.ActivityEvent, error)
}

type OrphanRepo interface {
	Record(ctx context.Context, o models.OrphanFile) error
	Pending(ctx context.Context, limit int) ([]models.OrphanFile, error)
	MarkAttempt(ctx context.Context, fileID string, attemptErr error) error
	Resolve(ctx context.Context, fileID string, at time.Time) error
}

type Repository struct {
	Sessions SessionRepo
	Activity ActivityRepo
	Orphans  OrphanRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Sessions: NewSessionSQLite(db),
		Activity: NewActivitySQLite(db),
		Orphans:  NewOrphanSQLite(db),
	}
}
