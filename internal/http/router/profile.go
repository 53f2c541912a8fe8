package router

import (
	"github.com/gin-gonic/gin"

	"cerium.app/cerium/internal/http/handler"
)

func ProfileRouter(rg *gin.RouterGroup, h *handler.ProfileHandler) {
	rg.GET("", h.Get)
	rg.PATCH("", h.Update)
}
