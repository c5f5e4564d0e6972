package handler

import (
	"net/http"
	"strings"

	"assistant/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig holds the HTTP surface settings
type RouterConfig struct {
	AllowedOrigins string // comma separated
	AllowedMethods string
	AllowedHeaders string
	RateLimiter    *RateLimiter // nil disables rate limiting
	Metrics        http.Handler // nil disables /metrics
	Build          BuildInfo
}

// NewRouter wires every endpoint onto a new gin engine
func NewRouter(chatService *service.ChatService, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(Recovery(logger), RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitList(cfg.AllowedOrigins, "*")
	corsConfig.AllowMethods = splitList(cfg.AllowedMethods, "GET,POST,OPTIONS")
	corsConfig.AllowHeaders = splitList(cfg.AllowedHeaders, "Content-Type,Authorization,"+UserIDHeader)
	router.Use(cors.New(corsConfig))

	chatHandler := NewChatHandler(chatService, logger)
	extractHandler := NewExtractHandler(chatService)
	contextHandler := NewContextHandler(chatService, logger)
	healthHandler := NewHealthHandler(chatService, cfg.Build)

	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if cfg.RateLimiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{cfg.RateLimiter.Middleware(), h}
	}

	router.GET("/health", healthHandler.Health)
	router.GET("/version", healthHandler.Version)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	router.POST("/chat", limited(chatHandler.Chat)...)

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/chat", limited(chatHandler.Chat)...)
		apiV1.POST("/extract", limited(extractHandler.Extract)...)
		apiV1.GET("/context/:user_id", contextHandler.Get)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Endpoint not found",
			"message": "API endpoint không tồn tại",
		})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":   "Method not allowed",
			"message": "HTTP method không được hỗ trợ",
		})
	})

	return router
}

func splitList(value, fallback string) []string {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
