package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// StoredFile is the metadata of an uploaded object.
type StoredFile struct {
	ID       string
	BucketID string
	Name     string
	MimeType string
	Size     int64
}

// PreviewOptions shapes an image preview.
type PreviewOptions struct {
	Width   int
	Height  int
	Gravity string
	Quality int
}

// DefaultPreview matches what the feed renders.
var DefaultPreview = PreviewOptions{Width: 2000, Height: 2000, Gravity: "top", Quality: 100}

func filesPath(bucketID string) string {
	return "/storage/buckets/" + url.PathEscape(bucketID) + "/files"
}

// CreateFile uploads content as a multipart form.
func (c *Client) CreateFile(ctx context.Context, bucketID, fileID, name, contentType string, content io.Reader) (*StoredFile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("fileId", fileID); err != nil {
		return nil, fmt.Errorf("write fileId field: %w", err)
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copy file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, filesPath(bucketID), nil, &buf, authKey)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	res := gjson.ParseBytes(body)
	return &StoredFile{
		ID:       res.Get("\\$id").String(),
		BucketID: res.Get("bucketId").String(),
		Name:     res.Get("name").String(),
		MimeType: res.Get("mimeType").String(),
		Size:     res.Get("sizeOriginal").Int(),
	}, nil
}

// DeleteFile removes a stored object.
func (c *Client) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, filesPath(bucketID)+"/"+url.PathEscape(fileID), nil, nil, authKey)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// FilePreviewURL returns the browser-loadable preview URL of a stored image.
// No request is made.
func (c *Client) FilePreviewURL(bucketID, fileID string, opt PreviewOptions) string {
	q := url.Values{}
	if opt.Width > 0 {
		q.Set("width", strconv.Itoa(opt.Width))
	}
	if opt.Height > 0 {
		q.Set("height", strconv.Itoa(opt.Height))
	}
	if opt.Gravity != "" {
		q.Set("gravity", opt.Gravity)
	}
	if opt.Quality > 0 {
		q.Set("quality", strconv.Itoa(opt.Quality))
	}
	return c.publicURL(filesPath(bucketID)+"/"+url.PathEscape(fileID)+"/preview", q)
}

// InitialsAvatarURL returns a generated avatar for a display name.
func (c *Client) InitialsAvatarURL(name string) string {
	return c.publicURL("/avatars/initials", url.Values{"name": {name}})
}
