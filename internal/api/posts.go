package api

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"dismoment/internal/backend"
	"dismoment/internal/models"
)

// NewPost is the create-post payload.
type NewPost struct {
	CreatorID string
	Caption   string
	Location  string
	Tags      string // comma separated, as typed
	Media     *Upload
}

// ParseTags turns "sea, sun ,," into ["sea" "sun"].
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(strings.ReplaceAll(raw, " ", ""), ",") {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// CreatePost uploads the media, then creates the post document referencing it.
// If the document create fails the upload is deleted before the error returns.
// This is not atomic: a crash between the steps leaves the file behind.
func (a *Adapter) CreatePost(ctx context.Context, p NewPost) (models.Post, error) {
	if p.Media == nil {
		return models.Post{}, a.done("create_post", ErrNoMedia)
	}

	file, err := a.UploadFile(ctx, *p.Media)
	if err != nil {
		return models.Post{}, a.done("create_post", fmt.Errorf("create post: %w", err))
	}

	imageURL, err := a.GetFilePreview(file.ID)
	if err != nil {
		return models.Post{}, a.done("create_post", a.undoUpload(ctx, "create post", file, err))
	}

	doc, err := a.be.CreateDocument(ctx, a.col.DatabaseID, a.col.Posts, a.newID(), map[string]any{
		"creator":  p.CreatorID,
		"caption":  p.Caption,
		"imageUrl": imageURL,
		"imageId":  file.ID,
		"location": p.Location,
		"tags":     ParseTags(p.Tags),
		"likes":    []string{},
	})
	if err != nil {
		return models.Post{}, a.done("create_post", a.undoUpload(ctx, "create post", file, err))
	}

	post, err := postFromDoc(doc)
	return post, a.done("create_post", err)
}

// GetRecentPosts returns the newest posts.
func (a *Adapter) GetRecentPosts(ctx context.Context) ([]models.Post, error) {
	return a.listPosts(ctx, "recent_posts",
		backend.OrderDesc("$createdAt"), backend.Limit(recentPostsLimit))
}

// GetPostsWithMedia returns the newest posts that carry an image.
func (a *Adapter) GetPostsWithMedia(ctx context.Context) ([]models.Post, error) {
	return a.listPosts(ctx, "explore_posts",
		backend.IsNotNull("imageId"), backend.OrderDesc("$createdAt"), backend.Limit(explorePostsLimit))
}

// GetPostsByAuthor returns a user's posts, newest first.
func (a *Adapter) GetPostsByAuthor(ctx context.Context, userID string) ([]models.Post, error) {
	return a.listPosts(ctx, "posts_by_author",
		backend.Equal("creator", userID), backend.OrderDesc("$createdAt"))
}

// SearchPosts matches term against captions.
func (a *Adapter) SearchPosts(ctx context.Context, term string) ([]models.Post, error) {
	return a.listPosts(ctx, "search_posts", backend.Search("caption", term))
}

// GetMostLikedPosts ranks the newest posts by like count. Ties keep the newer post first.
func (a *Adapter) GetMostLikedPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := a.listPosts(ctx, "most_liked_posts",
		backend.OrderDesc("$createdAt"), backend.Limit(mostLikedScan))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return len(posts[i].Likes) > len(posts[j].Likes)
	})
	if len(posts) > mostLikedLimit {
		posts = posts[:mostLikedLimit]
	}
	return posts, nil
}

// GetPostByID fetches one post.
func (a *Adapter) GetPostByID(ctx context.Context, id string) (models.Post, error) {
	doc, err := a.be.GetDocument(ctx, a.col.DatabaseID, a.col.Posts, id)
	if err != nil {
		if backend.IsNotFound(err) {
			return models.Post{}, a.done("get_post", fmt.Errorf("post %q: %w", id, ErrPostNotFound))
		}
		return models.Post{}, a.done("get_post", fmt.Errorf("get post %q: %w", id, err))
	}
	p, err := postFromDoc(doc)
	return p, a.done("get_post", err)
}

// LikePost adds userID to the post's likes.
func (a *Adapter) LikePost(ctx context.Context, postID, userID string) (models.Post, error) {
	return a.setLike(ctx, postID, userID, true)
}

// UnlikePost removes userID from the post's likes.
func (a *Adapter) UnlikePost(ctx context.Context, postID, userID string) (models.Post, error) {
	return a.setLike(ctx, postID, userID, false)
}

func (a *Adapter) setLike(ctx context.Context, postID, userID string, like bool) (models.Post, error) {
	op := "like_post"
	if !like {
		op = "unlike_post"
	}

	p, err := a.GetPostByID(ctx, postID)
	if err != nil {
		return models.Post{}, a.done(op, err)
	}
	likes := withoutID(p.Likes, userID)
	if like {
		likes = withID(p.Likes, userID)
	}

	doc, err := a.be.UpdateDocument(ctx, a.col.DatabaseID, a.col.Posts, postID, map[string]any{"likes": likes})
	if err != nil {
		return models.Post{}, a.done(op, fmt.Errorf("update likes of %q: %w", postID, err))
	}
	updated, err := postFromDoc(doc)
	return updated, a.done(op, err)
}

func (a *Adapter) listPosts(ctx context.Context, op string, queries ...backend.Query) ([]models.Post, error) {
	list, err := a.be.ListDocuments(ctx, a.col.DatabaseID, a.col.Posts, queries...)
	if err != nil {
		return nil, a.done(op, fmt.Errorf("list posts: %w", err))
	}
	posts, err := postsFromList(list)
	return posts, a.done(op, err)
}
