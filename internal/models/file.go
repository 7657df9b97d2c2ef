package models

// File is an object stored in a backend bucket.
type File struct {
	ID       string `json:"id"`
	BucketID string `json:"bucket_id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}
