package handler

import (
	"errors"
	"net/http"

	"assistant/internal/model"
	"assistant/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDHeader may carry the user id when the body does not
const UserIDHeader = "X-User-ID"

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat handles POST /chat and POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failedTurn("Invalid request format", service.BadRequestReply))
		return
	}
	if req.UserID == "" {
		req.UserID = c.GetHeader(UserIDHeader)
	}

	resp, err := h.chatService.Chat(c.Request.Context(), req)
	if err != nil {
		var inputErr *service.InputError
		if errors.As(err, &inputErr) {
			c.JSON(http.StatusBadRequest, failedTurn(inputErr.Reason, service.RejectionReply(inputErr.Reason)))
			return
		}
		h.logger.Error("Chat turn failed", zap.String("user_id", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, failedTurn("Internal server error", service.ApologyReply))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// failedTurn builds the body of a turn that did not run. Error details
// other than validation reasons never reach the caller.
func failedTurn(errMsg, reply string) model.ChatResponse {
	return model.ChatResponse{
		Response: reply,
		Entities: &model.EntitySet{},
		Context:  &model.ConversationContext{},
		Success:  false,
		Error:    errMsg,
	}
}
