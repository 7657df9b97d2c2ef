package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dismoment/internal/service"

	"github.com/gin-gonic/gin"
)

var (
	errFromInvalid = errors.New("invalid 'from' time; use RFC3339 or YYYY-MM-DD")
	errToInvalid   = errors.New("invalid 'to' time; use RFC3339 or YYYY-MM-DD")
	errRange       = errors.New("'from' must be <= 'to'")
)

// queryTimeLayouts are tried in order; the last one is a bare date.
var queryTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", time.DateOnly}

// @Summary      Activity log
// @Description  Sign-ins, posts, follows and cleanup results, oldest first. 'to' given as a bare date covers that whole day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-01)
// @Param        to    query   string  false  "End of range; a bare date means end of that day"  example(2025-08-31)
// @Param        type  query   string  false  "Event type"  Enums(SIGN_UP,SIGN_IN,SIGN_OUT,POST_CREATED,FOLLOW,UNFOLLOW,PROFILE_EDIT,COMPENSATION,ORPHAN_CLEARED)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	f, err := logFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "logs_list_failed", err,
			"from", f.From, "to", f.To, "type", f.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

// logFilterFromQuery reads ?from=&to=&type=. The returned error is safe to
// show to the caller.
func logFilterFromQuery(c *gin.Context) (service.LogFilter, error) {
	f := service.LogFilter{Type: strings.ToUpper(strings.TrimSpace(c.Query("type")))}

	if s := c.Query("from"); s != "" {
		t, _, err := parseQueryTime(s)
		if err != nil {
			return f, errFromInvalid
		}
		f.From = t
	}
	if s := c.Query("to"); s != "" {
		t, dateOnly, err := parseQueryTime(s)
		if err != nil {
			return f, errToInvalid
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, errRange
	}
	return f, nil
}

// parseQueryTime parses s as UTC and reports whether it was a bare date.
func parseQueryTime(s string) (time.Time, bool, error) {
	for i, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), i == len(queryTimeLayouts)-1, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid time %q", s)
}
