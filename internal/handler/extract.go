package handler

import (
	"errors"
	"net/http"

	"assistant/internal/model"
	"assistant/internal/service"

	"github.com/gin-gonic/gin"
)

// ExtractHandler exposes entity extraction without touching any user state
type ExtractHandler struct {
	chatService *service.ChatService
}

// NewExtractHandler creates a new extract handler
func NewExtractHandler(chatService *service.ChatService) *ExtractHandler {
	return &ExtractHandler{chatService: chatService}
}

// Extract handles POST /api/v1/extract
func (h *ExtractHandler) Extract(c *gin.Context) {
	var req model.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := h.chatService.Extract(req.Text)
	if err != nil {
		var inputErr *service.InputError
		if errors.As(err, &inputErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": inputErr.Reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
