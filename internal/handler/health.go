package handler

import (
	"net/http"

	"assistant/internal/service"

	"github.com/gin-gonic/gin"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// HealthHandler reports service readiness
type HealthHandler struct {
	chatService *service.ChatService
	build       BuildInfo
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(chatService *service.ChatService, build BuildInfo) *HealthHandler {
	return &HealthHandler{chatService: chatService, build: build}
}

// Health handles GET /health. A cold classifier reports "degraded" but
// still answers 200: chat keeps working without intents.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := h.chatService.Health(c.Request.Context())
	resp.Version = h.build.Version
	c.JSON(http.StatusOK, resp)
}

// Version handles GET /version
func (h *HealthHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, h.build)
}
