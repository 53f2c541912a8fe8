package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cerium.app/cerium/internal/http/dto"
	"cerium.app/cerium/internal/http/middleware"
	"cerium.app/cerium/internal/model"
	"cerium.app/cerium/internal/service"
	"cerium.app/cerium/internal/store"
)

type ConversationHandler struct {
	conversationService service.ConversationService
}

func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func (h *ConversationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	convs, err := h.conversationService.List(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list conversations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": dto.ToConversationResponses(convs)})
}

func (h *ConversationHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.conversationService.Create(ctx, user.ID, req.Title, req.Model)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create conversation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToConversationResponse(conv))
}

func (h *ConversationHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	convID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	var req dto.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.conversationService.Update(ctx, user.ID, convID, store.ConversationUpdate{
		Title: req.Title,
		Model: req.Model,
	})
	if err != nil {
		h.writeConversationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationResponse(conv))
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	convID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	if err := h.conversationService.Delete(ctx, user.ID, convID); err != nil {
		h.writeConversationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "conversation deleted"})
}

func (h *ConversationHandler) DeleteAll(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	if err := h.conversationService.DeleteAll(ctx, user.ID); err != nil {
		slog.ErrorContext(ctx, "failed to delete conversations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all conversations deleted"})
}

func (h *ConversationHandler) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	convID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	msgs, err := h.conversationService.Messages(ctx, user.ID, convID)
	if err != nil {
		h.writeConversationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": dto.ToMessageResponses(msgs)})
}

func (h *ConversationHandler) CountMessages(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	convID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	count, err := h.conversationService.CountMessages(ctx, user.ID, convID)
	if err != nil {
		h.writeConversationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *ConversationHandler) CreateMessage(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	convID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	var req dto.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := &model.Message{
		ConversationID: convID,
		Role:           model.MessageRole(req.Role),
		Content:        req.Content,
		Model:          req.Model,
		Metadata:       req.Metadata,
		ClientRef:      req.ClientRef,
	}

	inserted, err := h.conversationService.AppendMessage(ctx, user.ID, msg)
	if err != nil {
		h.writeConversationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMessageResponse(inserted))
}

func (h *ConversationHandler) writeConversationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, service.ErrNotConversationOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "conversation belongs to another user"})
	default:
		slog.ErrorContext(c.Request.Context(), "conversation operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "conversation operation failed"})
	}
}
