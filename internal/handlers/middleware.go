package handlers

import (
	"errors"
	"net/http"
	"strings"

	"dismoment/internal/session"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const (
	ctxSessionKey = "session"
	tokenQueryKey = "access_token"

	maxTrackedClients = 10_000
)

// sessionMiddleware resolves the bearer token to a live gateway session.
// allowQuery also accepts the token as ?access_token=.
func (h *Handler) sessionMiddleware(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, errMsg := bearerToken(c, allowQuery)
		if errMsg != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMsg})
			return
		}

		sessionID, err := h.services.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		sc, err := h.services.Restore(c.Request.Context(), sessionID)
		switch {
		case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "session ended; sign in again",
				"navigate": "/sign-in",
			})
			return
		case err != nil:
			if h.log != nil {
				h.log.Errorw("session_restore_failed", "session_id", sessionID, "err", err)
			}
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "could not restore session"})
			return
		}

		c.Set(ctxSessionKey, sc)
		c.Next()
	}
}

func bearerToken(c *gin.Context, allowQuery bool) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if allowQuery {
			if t := c.Query(tokenQueryKey); t != "" {
				return t, ""
			}
		}
		return "", "missing Authorization header"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "invalid Authorization header format"
	}
	return parts[1], ""
}

// currentSession returns the session stored by sessionMiddleware.
func currentSession(c *gin.Context) *session.Context {
	sc, _ := c.MustGet(ctxSessionKey).(*session.Context)
	return sc
}

// rateLimiter keeps one token bucket per client address. The least recently
// seen clients are evicted once maxTrackedClients is reached.
type rateLimiter struct {
	limiters *lru.Cache[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	cache, err := lru.New[string, *rate.Limiter](maxTrackedClients)
	if err != nil {
		panic(err)
	}
	return &rateLimiter{limiters: cache, rate: rate.Limit(rps), burst: burst}
}

func (rl *rateLimiter) allow(key string) bool {
	// PeekOrAdd keeps the first limiter when two requests race.
	l := rate.NewLimiter(rl.rate, rl.burst)
	if prev, ok, _ := rl.limiters.PeekOrAdd(key, l); ok {
		l = prev
	}
	return l.Allow()
}

func (h *Handler) rateLimitMiddleware(c *gin.Context) {
	if h.limiter == nil {
		c.Next()
		return
	}
	if !h.limiter.allow(c.ClientIP()) {
		h.metrics.RateLimited()
		if h.log != nil {
			h.log.Infow("rate_limit_exceeded", "client", c.ClientIP(), "path", c.FullPath())
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}
	c.Next()
}

func (h *Handler) metricsMiddleware(c *gin.Context) {
	done := h.metrics.RequestStarted()
	c.Next()
	done(c.Request.Method, c.FullPath(), c.Writer.Status())
}
