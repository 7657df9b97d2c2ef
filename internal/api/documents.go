package api

import (
	"fmt"

	"dismoment/internal/backend"
	"dismoment/internal/models"
)

type userDoc struct {
	AccountID string   `json:"accountId"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	Bio       string   `json:"bio"`
	ImageURL  string   `json:"imageUrl"`
	ImageID   string   `json:"imageId"`
	Followers []string `json:"followers"`
	Following []string `json:"following"`
}

func userFromDoc(doc backend.Document) (models.User, error) {
	var d userDoc
	if err := doc.Decode(&d); err != nil {
		return models.User{}, fmt.Errorf("decode user %q: %w", doc.ID, err)
	}
	return models.User{
		ID:        doc.ID,
		AccountID: d.AccountID,
		Username:  d.Username,
		Email:     d.Email,
		Name:      d.Name,
		Bio:       d.Bio,
		ImageURL:  d.ImageURL,
		ImageID:   d.ImageID,
		Followers: nonNil(d.Followers),
		Following: nonNil(d.Following),
	}, nil
}

type postDoc struct {
	Caption  string   `json:"caption"`
	ImageURL string   `json:"imageUrl"`
	ImageID  string   `json:"imageId"`
	Location string   `json:"location"`
	Tags     []string `json:"tags"`
	Likes    []string `json:"likes"`
}

func postFromDoc(doc backend.Document) (models.Post, error) {
	var d postDoc
	if err := doc.Decode(&d); err != nil {
		return models.Post{}, fmt.Errorf("decode post %q: %w", doc.ID, err)
	}

	// creator is either a plain id or an expanded user document.
	creator := doc.Get("creator")
	creatorID := creator.String()
	if creator.IsObject() {
		creatorID = creator.Get("\\$id").String()
	}

	p := models.Post{
		ID:        doc.ID,
		CreatorID: creatorID,
		Caption:   d.Caption,
		ImageURL:  d.ImageURL,
		ImageID:   d.ImageID,
		Location:  d.Location,
		Tags:      nonNil(d.Tags),
		Likes:     nonNil(d.Likes),
		Comments:  []models.Comment{},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, c := range doc.Get("comments").Array() {
		p.Comments = append(p.Comments, models.Comment{
			ID:      c.Get("\\$id").String(),
			Content: c.Get("content").String(),
			Author: models.CommentAuthor{
				ID:       c.Get("author.\\$id").String(),
				Username: c.Get("author.username").String(),
				ImageURL: c.Get("author.imageUrl").String(),
			},
			CreatedAt: backend.ParseTime(c.Get("\\$createdAt").String()),
		})
	}
	return p, nil
}

func postsFromList(list *backend.DocumentList) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(list.Documents))
	for _, doc := range list.Documents {
		p, err := postFromDoc(doc)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// withID returns ids plus id, unchanged if already present.
func withID(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

func withoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
