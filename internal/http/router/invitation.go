package router

import (
	"github.com/gin-gonic/gin"

	"cerium.app/cerium/internal/http/handler"
)

// InvitationRouter sets up invitation routes.
// - validate is public (the web app checks tokens before sign-in)
// - create/accept require an authenticated session
// - list/revoke are operator endpoints behind the admin API key
func InvitationRouter(rg *gin.RouterGroup, requireAuth, requireAdmin gin.HandlerFunc, h *handler.InvitationHandler) {
	rg.GET("/validate", h.Validate)

	rg.POST("", requireAuth, h.Create)
	rg.POST("/accept", requireAuth, h.Accept)

	admin := rg.Group("", requireAdmin)
	{
		admin.GET("", h.List)
		admin.POST("/:id/revoke", h.Revoke)
	}
}
