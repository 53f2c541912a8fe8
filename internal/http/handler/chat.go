package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cerium.app/cerium/common/logger"
	"cerium.app/cerium/internal/http/dto"
	"cerium.app/cerium/internal/http/middleware"
	"cerium.app/cerium/internal/service"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Complete(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ConversationID != "" {
		if convID, err := strconv.ParseInt(req.ConversationID, 10, 64); err == nil {
			ctx = logger.WithLogFields(ctx, logger.LogFields{ConversationID: logger.Ptr(convID)})
		}
	}

	messages := make([]service.ChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = service.ChatMessage{Role: m.Role, Content: m.Content}
	}

	result, err := h.chatService.Complete(ctx, user.ID, messages, req.Model)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoOpenAIKey):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no OpenAI API key configured", "code": "no_openai_key"})
		case errors.Is(err, service.ErrNoMessages):
			c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		default:
			slog.ErrorContext(ctx, "chat completion failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "chat completion failed"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{
		Message:            result.Message,
		RetrievedDocuments: result.Documents,
	})
}
