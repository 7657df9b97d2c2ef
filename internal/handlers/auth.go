package handlers

import (
	"net/http"

	"dismoment/internal/validation"

	"github.com/gin-gonic/gin"
)

// @Summary      Sign up
// @Description  Creates an account and signs it in. On success the response carries a bearer token and navigate "/".
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      validation.Signup  true  "Signup form"
// @Success      200   {object}  service.AuthResult
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  service.AuthResult
// @Failure      429   {object}  map[string]string
// @Failure      502   {object}  service.AuthResult
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var input validation.Signup
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	res, err := h.services.SignUp(c.Request.Context(), c.ClientIP(), input)
	h.respondOutcome(c, res, res.Outcome, err, http.StatusOK, "auth_sign_up_failed")
}

// @Summary      Sign in
// @Description  Username may be a username or an email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      validation.Login  true  "Login form"
// @Success      200   {object}  service.AuthResult
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  service.AuthResult
// @Failure      429   {object}  map[string]string
// @Failure      502   {object}  service.AuthResult
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input validation.Login
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	res, err := h.services.SignIn(c.Request.Context(), c.ClientIP(), input)
	h.respondOutcome(c, res, res.Outcome, err, http.StatusOK, "auth_sign_in_failed")
}

// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /auth/sign-out [post]
// @Security     BearerAuth
func (h *Handler) signOut(c *gin.Context) {
	sc := currentSession(c)
	if err := h.services.SignOut(c.Request.Context(), sc); err != nil && h.log != nil {
		// The local session is gone either way.
		h.log.Infow("auth_sign_out_backend_failed", "session_id", sc.SessionID, "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "navigate": "/sign-in"})
}
