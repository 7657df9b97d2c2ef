package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dismoment/internal/models"
)

type SessionSQLite struct {
	db *sql.DB
}

func NewSessionSQLite(db *sql.DB) *SessionSQLite {
	return &SessionSQLite{db: db}
}

// Ensure implementation of SessionRepo interface at compile time.
var _ SessionRepo = (*SessionSQLite)(nil)

const (
	insertSessionSQL = `INSERT INTO sessions (id, account_id, user_id, secret, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	selectSessionSQL = `SELECT id, account_id, user_id, secret, expires_at, created_at FROM sessions WHERE id = ?`
	deleteSessionSQL = `DELETE FROM sessions WHERE id = ?`
	deleteExpiredSQL = `DELETE FROM sessions WHERE expires_at <= ?`
)

// Create stores a new session. CreatedAt defaults to now.
func (r *SessionSQLite) Create(ctx context.Context, s models.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertSessionSQL,
		s.ID, s.AccountID, s.UserID, s.Secret, s.ExpiresAt.UTC(), s.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session %q: %w", s.ID, err)
	}
	return nil
}

// Get fetches a session by id. Returns ErrSessionNotFound if there is none.
func (r *SessionSQLite) Get(ctx context.Context, id string) (models.Session, error) {
	var s models.Session
	err := r.db.QueryRowContext(ctx, selectSessionSQL, id).
		Scan(&s.ID, &s.AccountID, &s.UserID, &s.Secret, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, fmt.Errorf("select session %q: %w", id, err)
	}
	s.ExpiresAt = s.ExpiresAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (r *SessionSQLite) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, deleteSessionSQL, id); err != nil {
		return fmt.Errorf("delete session %q: %w", id, err)
	}
	return nil
}

// DeleteExpired removes sessions that expired at or before now.
func (r *SessionSQLite) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredSQL, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count expired sessions: %w", err)
	}
	return n, nil
}
