package router

import (
	"github.com/gin-gonic/gin"

	"cerium.app/cerium/internal/http/handler"
)

func ConversationRouter(rg *gin.RouterGroup, h *handler.ConversationHandler) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("", h.DeleteAll)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)

	rg.GET("/:id/messages", h.ListMessages)
	rg.GET("/:id/messages/count", h.CountMessages)
	rg.POST("/:id/messages", h.CreateMessage)
}
