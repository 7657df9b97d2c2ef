package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dismoment/internal/models"
)

type OrphanSQLite struct {
	db *sql.DB
}

func NewOrphanSQLite(db *sql.DB) *OrphanSQLite {
	return &OrphanSQLite{db: db}
}

const (
	upsertOrphanSQL = `
		INSERT INTO orphan_files (file_id, bucket_id, reason, attempts, last_error, created_at)
		VALUES (?, ?, ?, 0, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			reason=excluded.reason,
			last_error=excluded.last_error,
			resolved_at=NULL
	`

	selectPendingOrphansSQL = `
		SELECT file_id, bucket_id, reason, attempts, last_error, created_at
		FROM orphan_files WHERE resolved_at IS NULL
		ORDER BY created_at ASC LIMIT ?
	`

	markOrphanAttemptSQL = `UPDATE orphan_files SET attempts = attempts + 1, last_error = ? WHERE file_id = ?`
	resolveOrphanSQL     = `UPDATE orphan_files SET resolved_at = ? WHERE file_id = ?`
)

// Record adds a leftover file to the ledger, or reopens it if already known.
func (r *OrphanSQLite) Record(ctx context.Context, o models.OrphanFile) error {
	created := o.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, upsertOrphanSQL,
		o.FileID, o.BucketID, o.Reason, o.LastError, created.UTC())
	if err != nil {
		return fmt.Errorf("record orphan file %q: %w", o.FileID, err)
	}
	return nil
}

// Pending returns up to limit unresolved files, oldest first.
func (r *OrphanSQLite) Pending(ctx context.Context, limit int) ([]models.OrphanFile, error) {
	rows, err := r.db.QueryContext(ctx, selectPendingOrphansSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query orphan files: %w", err)
	}
	defer rows.Close()

	var out []models.OrphanFile
	for rows.Next() {
		var (
			o       models.OrphanFile
			lastErr sql.NullString
		)
		if err := rows.Scan(&o.FileID, &o.BucketID, &o.Reason, &o.Attempts, &lastErr, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan orphan file: %w", err)
		}
		o.LastError = lastErr.String
		o.CreatedAt = o.CreatedAt.UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orphan files: %w", err)
	}
	return out, nil
}

// MarkAttempt counts a failed cleanup attempt.
func (r *OrphanSQLite) MarkAttempt(ctx context.Context, fileID string, attemptErr error) error {
	msg := ""
	if attemptErr != nil {
		msg = attemptErr.Error()
	}
	if _, err := r.db.ExecContext(ctx, markOrphanAttemptSQL, msg, fileID); err != nil {
		return fmt.Errorf("mark orphan file %q: %w", fileID, err)
	}
	return nil
}

// Resolve marks the file as deleted.
func (r *OrphanSQLite) Resolve(ctx context.Context, fileID string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, resolveOrphanSQL, at.UTC(), fileID); err != nil {
		return fmt.Errorf("resolve orphan file %q: %w", fileID, err)
	}
	return nil
}
