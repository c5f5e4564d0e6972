package handler

import (
	"net/http"

	"assistant/internal/model"
	"assistant/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// recentTurnsLimit caps the stored turns returned with a context
const recentTurnsLimit = 10

// ContextHandler exposes a read-only view of stored conversation contexts
type ContextHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

// NewContextHandler creates a new context handler
func NewContextHandler(chatService *service.ChatService, logger *zap.Logger) *ContextHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextHandler{chatService: chatService, logger: logger}
}

// Get handles GET /api/v1/context/:user_id. When turns are persisted the
// reply also carries the user's latest turns; a failing lookup omits them.
func (h *ContextHandler) Get(c *gin.Context) {
	userID := c.Param("user_id")
	ctx, ok := h.chatService.Context(userID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Context not found", "message": "Chưa có ngữ cảnh hội thoại cho người dùng này"})
		return
	}

	resp := gin.H{
		"user_id":    userID,
		"context":    ctx,
		"can_search": ctx.CanSearch(),
	}
	if h.chatService.Persistent() {
		turns, err := h.chatService.RecentTurns(c.Request.Context(), userID, recentTurnsLimit)
		if err != nil {
			h.logger.Warn("Failed to load recent turns", zap.String("user_id", userID), zap.Error(err))
		} else {
			if turns == nil {
				turns = []model.TurnRecord{}
			}
			resp["recent_turns"] = turns
		}
	}
	c.JSON(http.StatusOK, resp)
}
