package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dismoment/internal/api"
	"dismoment/internal/validation"
	"dismoment/internal/view"

	"github.com/gin-gonic/gin"
)

const (
	errGetPost     = "failed to load post"
	errToggleLike  = "failed to update like"
	errUploadRead  = "could not read upload"
	errUploadLarge = "upload too large"
	errSearchTerm  = "query parameter 'q' is required"
)

// listStatus maps a list view to an HTTP status. A failed load keeps the
// list shape so the page can render its error state.
func listStatus(list view.PostList) int {
	if list.Status == view.ListError {
		return http.StatusBadGateway
	}
	return http.StatusOK
}

// @Summary      Home feed
// @Tags         posts
// @Produce      json
// @Success      200  {object}  view.PostList
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  view.PostList
// @Router       /api/v1/posts/recent [get]
// @Security     BearerAuth
func (h *Handler) recentPosts(c *gin.Context) {
	list := h.services.Recent(c.Request.Context(), currentSession(c))
	c.JSON(listStatus(list), list)
}

// @Summary      Explore grid
// @Description  Newest posts that carry media.
// @Tags         posts
// @Produce      json
// @Success      200  {object}  view.PostList
// @Router       /api/v1/posts/explore [get]
// @Security     BearerAuth
func (h *Handler) explorePosts(c *gin.Context) {
	list := h.services.Explore(c.Request.Context(), currentSession(c))
	c.JSON(listStatus(list), list)
}

// @Summary      Trending posts
// @Tags         posts
// @Produce      json
// @Success      200  {object}  view.PostList
// @Router       /api/v1/posts/most-liked [get]
// @Security     BearerAuth
func (h *Handler) mostLikedPosts(c *gin.Context) {
	list := h.services.MostLiked(c.Request.Context(), currentSession(c))
	c.JSON(listStatus(list), list)
}

// @Summary      Search posts by caption
// @Tags         posts
// @Produce      json
// @Param        q    query     string  true  "Search term"
// @Success      200  {object}  view.PostList
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/posts/search [get]
// @Security     BearerAuth
func (h *Handler) searchPosts(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errSearchTerm})
		return
	}
	list := h.services.SearchPosts(c.Request.Context(), currentSession(c), term)
	c.JSON(listStatus(list), list)
}

// @Summary      Get post
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  models.Post
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/posts/{id} [get]
// @Security     BearerAuth
func (h *Handler) getPost(c *gin.Context) {
	post, err := h.services.GetPost(c.Request.Context(), currentSession(c), c.Param("id"))
	if errors.Is(err, api.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetPost, "post_get_failed", err, "post_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, post)
}

// @Summary      Like or unlike a post
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  models.Post
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/posts/{id}/like [post]
// @Security     BearerAuth
func (h *Handler) toggleLike(c *gin.Context) {
	post, err := h.services.ToggleLike(c.Request.Context(), currentSession(c), c.Param("id"))
	if errors.Is(err, api.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errToggleLike, "post_like_failed", err, "post_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, post)
}

// @Summary      Create post
// @Description  Multipart form with caption, location, tags (comma separated) and file.
// @Tags         posts
// @Accept       multipart/form-data
// @Produce      json
// @Param        caption   formData  string  true   "Caption"
// @Param        location  formData  string  false  "Location"
// @Param        tags      formData  string  false  "Comma separated tags"
// @Param        file      formData  file    true   "Media"
// @Success      201  {object}  view.Outcome
// @Failure      409  {object}  map[string]string
// @Failure      422  {object}  view.Outcome
// @Failure      502  {object}  view.Outcome
// @Router       /api/v1/posts [post]
// @Security     BearerAuth
func (h *Handler) createPost(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	media, err := readUpload(c, "file")
	if err != nil {
		h.uploadError(c, err)
		return
	}
	in := validation.NewPost{
		Caption:  c.PostForm("caption"),
		Location: c.PostForm("location"),
		Tags:     c.PostForm("tags"),
	}

	out, err := h.services.CreatePost(c.Request.Context(), currentSession(c), in, media)
	h.respondOutcome(c, out, out, err, http.StatusCreated, "post_create_failed")
}

// readUpload reads the multipart file in field. A missing file is not an
// error; the form decides whether it is required.
func readUpload(c *gin.Context, field string) (*api.Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}
	return &api.Upload{Name: fh.Filename, ContentType: contentType, Content: bytes.NewReader(content)}, nil
}

func (h *Handler) uploadError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errUploadLarge})
		return
	}
	h.logAndJSONError(c, http.StatusBadRequest, errUploadRead, "upload_read_failed", err)
}
