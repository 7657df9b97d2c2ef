package handlers

import (
	"dismoment/internal/logger"
	"dismoment/internal/metrics"
	"dismoment/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const defaultMaxUploadBytes = 10 << 20 // 10 MB

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services  *service.Service
	log       *logger.Logger
	metrics   *metrics.Metrics
	limiter   *rateLimiter
	maxUpload int64
	proxies   []string
}

type Option func(*Handler)

// WithMetrics instruments every route and serves GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithRateLimit limits /auth requests per client address.
func WithRateLimit(rps float64, burst int) Option {
	return func(h *Handler) { h.limiter = newRateLimiter(rps, burst) }
}

// WithMaxUpload caps multipart request bodies.
func WithMaxUpload(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// WithTrustedProxies lists the reverse proxies whose X-Forwarded-For is
// believed. Without it the peer address is the client address.
func WithTrustedProxies(proxies []string) Option {
	return func(h *Handler) { h.proxies = proxies }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log, maxUpload: defaultMaxUploadBytes}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(h.proxies); err != nil {
		if h.log != nil {
			h.log.Errorw("invalid trusted proxies; trusting none", "proxies", h.proxies, "err", err)
		}
		_ = router.SetTrustedProxies(nil)
	}

	if h.metrics != nil {
		router.Use(h.metricsMiddleware)
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Search overlay stream; browsers cannot set headers on a websocket
	// handshake, so the token may come as ?access_token=.
	router.GET("/ws/search", h.sessionMiddleware(true), h.wsSearch)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.rateLimitMiddleware, h.signUp)
		auth.POST("/sign-in", h.rateLimitMiddleware, h.signIn)
		auth.POST("/sign-out", h.sessionMiddleware(false), h.signOut)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.sessionMiddleware(false))
	{
		api.GET("/me", h.me)
		h.registerPostRoutes(api)
		h.registerUserRoutes(api)
		api.GET("/files/:id/preview", h.filePreview)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerPostRoutes(api *gin.RouterGroup) {
	posts := api.Group("/posts")
	{
		posts.GET("/recent", h.recentPosts)
		posts.GET("/explore", h.explorePosts)
		posts.GET("/most-liked", h.mostLikedPosts)
		posts.GET("/search", h.searchPosts)
		posts.GET("/:id", h.getPost)
		posts.POST("", h.createPost)
		posts.POST("/:id/like", h.toggleLike)
	}
}

func (h *Handler) registerUserRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	{
		// Static segment first: PATCH /users/me is the edit-profile dialog.
		users.PATCH("/me", h.editProfile)
		users.GET("/:id", h.getUser)
		users.GET("/:id/profile", h.userProfile)
		users.GET("/:id/posts", h.userPosts)
		users.POST("/:id/follow", h.toggleFollow)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
		logs.GET("/", h.getLogs)
	}
}
