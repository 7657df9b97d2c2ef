package models

import "time"

type Post struct {
	ID        string    `json:"id"`
	CreatorID string    `json:"creator_id"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"image_url,omitempty"`
	ImageID   string    `json:"image_id,omitempty"`
	Location  string    `json:"location,omitempty"`
	Tags      []string  `json:"tags"`
	Likes     []string  `json:"likes"` // user ids
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMedia reports whether the post references an uploaded file.
func (p Post) HasMedia() bool { return p.ImageID != "" }

// Comment carries only the author fields needed to render it.
type Comment struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Author    CommentAuthor `json:"author"`
	CreatedAt time.Time     `json:"created_at"`
}

type CommentAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}
