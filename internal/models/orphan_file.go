package models

import "time"

// OrphanFile is an uploaded file whose compensating delete failed.
type OrphanFile struct {
	FileID     string    `json:"file_id"`
	BucketID   string    `json:"bucket_id"`
	Reason     string    `json:"reason"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}

// Resolved reports whether the file has since been deleted.
func (o OrphanFile) Resolved() bool { return !o.ResolvedAt.IsZero() }
