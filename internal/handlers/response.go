package handlers

import (
	"errors"
	"net/http"

	"dismoment/internal/view"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
	errBusy            = "a previous submission is still in progress"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// outcomeStatus maps a form outcome to an HTTP status. Field errors are 422,
// a backend failure is 502 with the toast in the body.
func outcomeStatus(out view.Outcome, success int) int {
	switch {
	case len(out.FieldErrors) > 0:
		return http.StatusUnprocessableEntity
	case out.State == view.FormFailure:
		return http.StatusBadGateway
	default:
		return success
	}
}

// respondOutcome writes a form outcome. A submission rejected as busy is 409.
func (h *Handler) respondOutcome(c *gin.Context, out any, state view.Outcome, err error, success int, logKey string) {
	if errors.Is(err, view.ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"error": errBusy})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "request failed", logKey, err)
		return
	}
	if state.State == view.FormFailure && h.log != nil {
		msg := ""
		if state.Notification != nil {
			msg = state.Notification.Message
		}
		h.log.Infow(logKey, "path", c.FullPath(), "notification", msg)
	}
	c.JSON(outcomeStatus(state, success), out)
}
