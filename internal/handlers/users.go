package handlers

import (
	"errors"
	"net/http"

	"dismoment/internal/api"
	"dismoment/internal/validation"

	"github.com/gin-gonic/gin"
)

const (
	errGetUser     = "failed to load user"
	errFilePreview = "failed to resolve file"
)

// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  models.User
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/me [get]
// @Security     BearerAuth
func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).User)
}

// @Summary      Get user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/users/{id} [get]
// @Security     BearerAuth
func (h *Handler) getUser(c *gin.Context) {
	user, err := h.services.GetUser(c.Request.Context(), currentSession(c), c.Param("id"))
	if errors.Is(err, api.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetUser, "user_get_failed", err, "user_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Profile page
// @Description  The user and their posts, loaded side by side.
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  view.Profile
// @Failure      502  {object}  view.Profile
// @Router       /api/v1/users/{id}/profile [get]
// @Security     BearerAuth
func (h *Handler) userProfile(c *gin.Context) {
	p := h.services.Profile(c.Request.Context(), currentSession(c), c.Param("id"))
	code := http.StatusOK
	if p.User == nil {
		code = http.StatusBadGateway
	}
	c.JSON(code, p)
}

// @Summary      Posts by user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  view.PostList
// @Router       /api/v1/users/{id}/posts [get]
// @Security     BearerAuth
func (h *Handler) userPosts(c *gin.Context) {
	list := h.services.PostsByAuthor(c.Request.Context(), currentSession(c), c.Param("id"))
	c.JSON(listStatus(list), list)
}

// @Summary      Follow or unfollow
// @Description  Unfollows when the signed-in user already follows id, follows otherwise.
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  view.Outcome
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  view.Outcome
// @Router       /api/v1/users/{id}/follow [post]
// @Security     BearerAuth
func (h *Handler) toggleFollow(c *gin.Context) {
	out, err := h.services.ToggleFollow(c.Request.Context(), currentSession(c), c.Param("id"))
	h.respondOutcome(c, out, out, err, http.StatusOK, "user_follow_failed")
}

// @Summary      Edit profile
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        username  formData  string  true   "Username"
// @Param        email     formData  string  true   "Email"
// @Param        name      formData  string  true   "Display name"
// @Param        bio       formData  string  false  "Bio"
// @Param        file      formData  file    false  "Avatar"
// @Success      200  {object}  view.Outcome
// @Failure      409  {object}  map[string]string
// @Failure      422  {object}  view.Outcome
// @Failure      502  {object}  view.Outcome
// @Router       /api/v1/users/me [patch]
// @Security     BearerAuth
func (h *Handler) editProfile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	avatar, err := readUpload(c, "file")
	if err != nil {
		h.uploadError(c, err)
		return
	}
	in := validation.Profile{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Name:     c.PostForm("name"),
		Bio:      c.PostForm("bio"),
	}

	out, err := h.services.EditProfile(c.Request.Context(), currentSession(c), in, avatar)
	h.respondOutcome(c, out, out, err, http.StatusOK, "user_edit_profile_failed")
}

// @Summary      File preview
// @Description  Redirects to a scaled preview of a stored file.
// @Tags         files
// @Param        id   path  string  true  "File id"
// @Success      302
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/files/{id}/preview [get]
// @Security     BearerAuth
func (h *Handler) filePreview(c *gin.Context) {
	url, err := h.services.PreviewURL(c.Param("id"))
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errFilePreview, "file_preview_failed", err, "file_id", c.Param("id"))
		return
	}
	c.Redirect(http.StatusFound, url)
}

