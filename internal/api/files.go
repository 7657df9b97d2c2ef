package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"dismoment/internal/backend"
	"dismoment/internal/models"
)

// Upload is a file received from the browser.
type Upload struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// UploadFile stores an upload in the media bucket under a fresh id.
func (a *Adapter) UploadFile(ctx context.Context, up Upload) (models.File, error) {
	sf, err := a.be.CreateFile(ctx, a.col.Media, a.newID(), up.Name, up.ContentType, up.Content)
	if err != nil {
		return models.File{}, a.done("upload_file", fmt.Errorf("upload %q: %w", up.Name, err))
	}
	return models.File{
		ID:       sf.ID,
		BucketID: a.col.Media,
		Name:     sf.Name,
		MimeType: sf.MimeType,
		Size:     sf.Size,
	}, a.done("upload_file", nil)
}

// GetFilePreview returns the preview URL of a stored image.
func (a *Adapter) GetFilePreview(fileID string) (string, error) {
	if fileID == "" {
		return "", errors.New("file id is required")
	}
	return a.be.FilePreviewURL(a.col.Media, fileID, backend.DefaultPreview), nil
}

// DeleteFile removes a stored file from the media bucket.
func (a *Adapter) DeleteFile(ctx context.Context, fileID string) error {
	if err := a.be.DeleteFile(ctx, a.col.Media, fileID); err != nil {
		return a.done("delete_file", fmt.Errorf("delete file %q: %w", fileID, err))
	}
	return a.done("delete_file", nil)
}

// compensationTimeout bounds an undo step. Undo runs even when the request
// that triggered it was cancelled.
const compensationTimeout = 15 * time.Second

// ErrReplaced is the cause recorded for a file dropped because a newer one
// took its place.
var ErrReplaced = errors.New("file replaced")

func compensationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
}

// DiscardFile deletes a media file nothing refers to any more. A failure is
// returned as a *CompensationError carrying the file.
func (a *Adapter) DiscardFile(ctx context.Context, op, fileID string) error {
	cctx, cancel := compensationContext(ctx)
	defer cancel()
	if err := a.be.DeleteFile(cctx, a.col.Media, fileID); err != nil && !backend.IsNotFound(err) {
		return a.done("discard_file", &CompensationError{
			Op:         op,
			Resource:   "file " + a.col.Media + "/" + fileID,
			Cause:      ErrReplaced,
			CleanupErr: err,
			File:       &models.File{ID: fileID, BucketID: a.col.Media},
		})
	}
	return a.done("discard_file", nil)
}

// undoUpload deletes f after a later step failed with cause.
func (a *Adapter) undoUpload(ctx context.Context, op string, f models.File, cause error) error {
	cctx, cancel := compensationContext(ctx)
	defer cancel()
	if err := a.be.DeleteFile(cctx, a.col.Media, f.ID); err != nil {
		file := f
		return &CompensationError{
			Op:         op,
			Resource:   "file " + f.BucketID + "/" + f.ID,
			Cause:      cause,
			CleanupErr: err,
			File:       &file,
		}
	}
	return fmt.Errorf("%s: %w", op, cause)
}
