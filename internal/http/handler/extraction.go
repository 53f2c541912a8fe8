package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cerium.app/cerium/internal/http/dto"
	"cerium.app/cerium/internal/http/middleware"
	"cerium.app/cerium/internal/service"
)

type ExtractionHandler struct {
	extractionService service.ExtractionService
}

func NewExtractionHandler(extractionService service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{extractionService: extractionService}
}

func (h *ExtractionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	var req dto.CreateExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enqueued, err := h.extractionService.EnqueueChannels(ctx, user.ID, req.Channels)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSlackToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no Slack bot token configured", "code": "no_slack_token"})
		case errors.Is(err, service.ErrNoChannels):
			c.JSON(http.StatusBadRequest, gin.H{"error": "channels are required"})
		default:
			slog.ErrorContext(ctx, "failed to enqueue extraction", "error", err, "enqueued", enqueued)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue extraction"})
		}
		return
	}

	c.JSON(http.StatusAccepted, dto.CreateExtractionResponse{Enqueued: enqueued})
}
