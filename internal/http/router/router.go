package router

import (
	"github.com/gin-gonic/gin"

	"cerium.app/cerium/internal/http/handler"
	"cerium.app/cerium/internal/http/middleware"
	"cerium.app/cerium/internal/realtime"
	"cerium.app/cerium/internal/service"
	"cerium.app/cerium/internal/store"
)

type RouterConfig struct {
	WebURL       string
	AdminAPIKey  string
	IsProduction bool
}

func SetupRoutes(router *gin.Engine, services *service.Services, stores *store.Stores, hub *realtime.Hub, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(services.Auth())

	authHandler := handler.NewAuthHandler(services.Auth(), cfg.WebURL, cfg.IsProduction)
	AuthRouter(router.Group("/auth"), authHandler, requireAuth)

	v1 := router.Group("/api/v1")
	{
		userHandler := handler.NewUserHandler(services.Users())
		UserRouter(v1.Group("/users", requireAuth), userHandler)

		orgHandler := handler.NewOrganizationHandler(services.Organizations())
		OrganizationRouter(v1.Group("/organizations", requireAuth), orgHandler)

		invitationHandler := handler.NewInvitationHandler(services.Invitations())
		InvitationRouter(v1.Group("/invitations"), requireAuth, middleware.RequireAdminKey(cfg.AdminAPIKey), invitationHandler)

		profileHandler := handler.NewProfileHandler(services.Profiles())
		ProfileRouter(v1.Group("/profile", requireAuth), profileHandler)

		conversationHandler := handler.NewConversationHandler(services.Conversations())
		ConversationRouter(v1.Group("/conversations", requireAuth), conversationHandler)

		chatHandler := handler.NewChatHandler(services.Chat())
		v1.POST("/chat", requireAuth, chatHandler.Complete)

		extractionHandler := handler.NewExtractionHandler(services.Extractions())
		v1.POST("/extractions", requireAuth, extractionHandler.Create)

		realtimeHandler := realtime.NewHandler(hub, stores.Conversations())
		v1.GET("/realtime", requireAuth, realtimeHandler.Serve)
	}
}
